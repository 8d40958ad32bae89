// Package confloader loads LinkHub configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Command-line flags (LoadMap)
//  2. Environment variables (LINKHUB_SECTION_KEY)
//  3. The YAML configuration file
//  4. Defaults (WithDefaults)
//
// Watcher reports changes to the configuration file so long-running
// commands can reload it.
package confloader
