// Package schema loads record schemas from TOML files and builds codec
// records from them at runtime.
//
// A schema file names the record and lists its properties:
//
//	name = "Point"
//	namespace = "geo"
//	order = ["x", "y"]
//
//	[props.x]
//	type = "int32"
//
//	[props.y]
//	type = "int32"
//
//	[props.label]
//	type = "string"
//	max_length = "label_len"
//
//	[props.tags]
//	type = "set"
//	max_items = 8
//	item = { type = "uint16" }
//
// Properties listed in order come first, the rest follow in file order.
// Lengths are integers or names from the [lengths] table of the globals
// file, which may also cap every schema with max_crunchy_bytes_serial_length
// (or its short alias max_serial_length).
package schema
