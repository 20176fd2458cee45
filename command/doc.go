// Package command describes key/value server commands in a driver-neutral way.
//
// It is the vocabulary shared by the kvclient package and the driver adapters:
// a closed catalog of command identifiers, typed and named arguments, the
// argument trace kept for diagnostics, the neutral reply model, and the
// domain enumerations and option objects that drivers translate into their
// own native parameter types.
//
// # Catalog
//
// Every command the client can issue has an ID. The catalog maps the ID to a
// Spec describing its wire name, optional sub-command, routing flags, reply
// shape and, for multi-key commands that can be split on a cluster, its
// scatter kind:
//
//	spec := command.MGet.Spec()
//	spec.Name    // "MGET"
//	spec.Shape   // ShapeNullableStrings
//	spec.Scatter // ScatterGather
//
// # Arguments
//
// Requests carry named, typed arguments. Keys are identified by their kind,
// never by position, so topology checks can find them regardless of the
// command layout:
//
//	req := command.NewRequest(command.Set,
//	    command.Key("key", "greeting"),
//	    command.Text("value", "hello"),
//	    command.Opt("options", command.SetOptions{Condition: command.SetIfAbsent}),
//	)
//	req.Keys() // ["greeting"]
//
// Text and Bytes arguments keep the caller's representation all the way to
// the driver.
//
// # Converters
//
// Table is a bidirectional mapping between a domain enumeration and a native
// representation. Drivers build one Table per enumeration at package
// initialization. Unmapped values fail with a ConversionError instead of
// being coerced.
//
// # Replies
//
// Drivers normalize native replies into Reply according to the command's
// Shape. Absent values are ReplyNil, not errors.
package command
