package manifest

// reservedClassNames lists the kernel classes every interpreter
// bootstraps. The class registry is flat and a later definition
// replaces an earlier one, so a dependency shipping one of these
// names would clobber the kernel for the whole program.
var reservedClassNames = map[string]bool{
	"Object":          true,
	"UndefinedObject": true,
	"Boolean":         true,
	"True":            true,
	"False":           true,
	"Integer":         true,
	"Float":           true,
	"Character":       true,
	"String":          true,
	"Symbol":          true,
	"Array":           true,
	"BlockClosure":    true,
	"Class":           true,
	"Native":          true,
	"RemoteHost":      true,
}

// IsReservedClassName reports whether name is a kernel class name that
// dependency sources must not redefine. A project's own sources are
// not held to this; shadowing the kernel locally is the author's
// business, a dependency doing it silently is not.
func IsReservedClassName(name string) bool {
	return reservedClassNames[name]
}
