// Package output renders fp4-cli results as a table, JSON or YAML.
//
// Tables are built by reflection from structs, slices and maps. Struct
// fields are labelled by their json tag; a `table:"-"` tag hides a field
// and `table:"wide"` shows it only with --wide.
package output
