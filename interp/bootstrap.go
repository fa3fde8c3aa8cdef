package interp

// ---------------------------------------------------------------------------
// Bootstrap: the kernel class hierarchy, global bindings, and the
// kernel method tables. Runs once per interpreter, before any user
// code. Kernel methods that wrap a primitive carry the standard
// fallback body `^self primitiveFailed`, so a declined primitive
// becomes a fatal condition unless a subclass overrides the selector.
// ---------------------------------------------------------------------------

func (in *Interp) bootstrap() {
	in.installPrimitives()
	in.buildKernelClasses()
	in.installKernelMethods()
	in.installRemoteKernel()
}

// buildKernelClasses creates the kernel hierarchy, registers every
// class, and binds each class name as a global.
func (in *Interp) buildKernelClasses() {
	object := NewClass("Object", nil)
	in.ObjectClass = object
	in.NilClass = NewClass("UndefinedObject", object)
	in.BooleanClass = NewClass("Boolean", object)
	in.TrueClass = NewClass("True", in.BooleanClass)
	in.FalseClass = NewClass("False", in.BooleanClass)
	in.IntegerClass = NewClass("Integer", object)
	in.FloatClass = NewClass("Float", object)
	in.CharacterClass = NewClass("Character", object)
	in.StringClass = NewClass("String", object)
	in.StringClass.Variable = true
	in.SymbolClass = NewClass("Symbol", in.StringClass)
	in.ArrayClass = NewClass("Array", object)
	in.ArrayClass.Variable = true
	in.BlockClass = NewClass("BlockClosure", object)
	in.ClassClass = NewClass("Class", object)
	in.NativeClass = NewClass("Native", object)
	in.RemoteHostClass = NewClassWithInstVars("RemoteHost", object, []string{"handle"})

	for _, c := range []*Class{
		object, in.NilClass, in.BooleanClass, in.TrueClass, in.FalseClass,
		in.IntegerClass, in.FloatClass, in.CharacterClass, in.StringClass,
		in.SymbolClass, in.ArrayClass, in.BlockClass, in.ClassClass,
		in.NativeClass, in.RemoteHostClass,
	} {
		in.Classes.Register(c)
		in.Globals.Set(c.Name, c)
	}

	in.Globals.Set("nil", Nil)
	in.Globals.Set("true", True)
	in.Globals.Set("false", False)
}

func (in *Interp) installKernelMethods() {
	// Object: identity, reflection, indexed access, printing. at:,
	// at:put: and size live here so every indexable value shares one
	// protocol; non-indexable receivers fail into primitiveFailed.
	obj := in.ObjectClass
	obj.AddMethod(primMethod("==", []string{"anObject"}, 110))
	obj.AddMethod(primMethod("~~", []string{"anObject"}, 111))
	obj.AddMethod(primMethod("class", nil, 112))
	obj.AddMethod(primMethod("isKindOf:", []string{"aClass"}, 116))
	obj.AddMethod(primMethod("isMemberOf:", []string{"aClass"}, 117))
	obj.AddMethod(primMethod("respondsTo:", []string{"aSymbol"}, 118))
	obj.AddMethod(primMethod("isNil", nil, 220))
	obj.AddMethod(primMethod("notNil", nil, 221))
	obj.AddMethod(primMethod("printString", nil, 230))
	obj.AddMethod(primMethod("at:", []string{"index"}, 60))
	obj.AddMethod(primMethod("at:put:", []string{"index", "anObject"}, 61))
	obj.AddMethod(primMethod("size", nil, 62))
	obj.AddMethod(&Method{Selector: "primitiveFailed", Primitive: 250, Body: &Seq{}})
	obj.AddMethod(NewMethod("yourself", nil, body(ret(&SelfRef{}))))
	obj.AddMethod(NewMethod("=", []string{"anObject"},
		body(ret(msg(&SelfRef{}, "==", argRef("anObject"))))))
	obj.AddMethod(NewMethod("~=", []string{"anObject"},
		body(ret(msg(msg(&SelfRef{}, "=", argRef("anObject")), "not")))))
	obj.AddMethod(NewMethod("asString", nil, body(ret(msg(&SelfRef{}, "printString")))))

	obj.AddClassMethod(primMethod("basicNew", nil, 70))
	obj.AddClassMethod(primMethod("basicNew:", []string{"size"}, 71))
	obj.AddClassMethod(NewMethod("new", nil, body(ret(msg(&SelfRef{}, "basicNew")))))
	obj.AddClassMethod(NewMethod("new:", []string{"size"},
		body(ret(msg(&SelfRef{}, "basicNew:", argRef("size"))))))

	// Boolean. The branch primitives live on Boolean itself; True and
	// False stay empty and inherit them.
	boolean := in.BooleanClass
	boolean.AddMethod(primMethod("ifTrue:", []string{"aBlock"}, 210))
	boolean.AddMethod(primMethod("ifFalse:", []string{"aBlock"}, 211))
	boolean.AddMethod(primMethod("ifTrue:ifFalse:", []string{"trueBlock", "falseBlock"}, 212))
	boolean.AddMethod(primMethod("ifFalse:ifTrue:", []string{"falseBlock", "trueBlock"}, 213))
	boolean.AddMethod(primMethod("not", nil, 214))
	boolean.AddMethod(primMethod("and:", []string{"aBlock"}, 215))
	boolean.AddMethod(primMethod("or:", []string{"aBlock"}, 216))
	boolean.AddMethod(NewMethod("&", []string{"aBoolean"},
		body(ret(msg(&SelfRef{}, "and:", blk(argRef("aBoolean")))))))
	boolean.AddMethod(NewMethod("|", []string{"aBoolean"},
		body(ret(msg(&SelfRef{}, "or:", blk(argRef("aBoolean")))))))
	boolean.AddMethod(NewMethod("xor:", []string{"aBoolean"},
		body(ret(msg(msg(&SelfRef{}, "==", argRef("aBoolean")), "not")))))

	// Integer.
	integer := in.IntegerClass
	integer.AddMethod(primMethod("+", []string{"aNumber"}, 1))
	integer.AddMethod(primMethod("-", []string{"aNumber"}, 2))
	integer.AddMethod(primMethod("<", []string{"aNumber"}, 3))
	integer.AddMethod(primMethod(">", []string{"aNumber"}, 4))
	integer.AddMethod(primMethod("<=", []string{"aNumber"}, 5))
	integer.AddMethod(primMethod(">=", []string{"aNumber"}, 6))
	integer.AddMethod(primMethod("=", []string{"aNumber"}, 7))
	integer.AddMethod(primMethod("~=", []string{"aNumber"}, 8))
	integer.AddMethod(primMethod("*", []string{"aNumber"}, 9))
	integer.AddMethod(primMethod("/", []string{"aNumber"}, 10))
	integer.AddMethod(primMethod("\\\\", []string{"aNumber"}, 11))
	integer.AddMethod(primMethod("//", []string{"aNumber"}, 12))
	integer.AddMethod(NewMethod("negated", nil,
		body(ret(msg(lit(0), "-", &SelfRef{})))))
	integer.AddMethod(NewMethod("abs", nil,
		body(ret(msg(msg(&SelfRef{}, "<", lit(0)), "ifTrue:ifFalse:",
			blk(msg(&SelfRef{}, "negated")), blk(&SelfRef{}))))))
	integer.AddMethod(NewMethod("max:", []string{"aNumber"},
		body(ret(msg(msg(&SelfRef{}, ">", argRef("aNumber")), "ifTrue:ifFalse:",
			blk(&SelfRef{}), blk(argRef("aNumber")))))))
	integer.AddMethod(NewMethod("min:", []string{"aNumber"},
		body(ret(msg(msg(&SelfRef{}, "<", argRef("aNumber")), "ifTrue:ifFalse:",
			blk(&SelfRef{}), blk(argRef("aNumber")))))))
	integer.AddMethod(NewMethod("isZero", nil,
		body(ret(msg(&SelfRef{}, "=", lit(0))))))
	integer.AddMethod(NewMethod("even", nil,
		body(ret(msg(msg(&SelfRef{}, "\\\\", lit(2)), "=", lit(0))))))
	integer.AddMethod(NewMethod("odd", nil,
		body(ret(msg(msg(&SelfRef{}, "\\\\", lit(2)), "=", lit(1))))))
	// timesRepeat: and to:do: are plain language-level loops over
	// whileTrue:.
	integer.AddMethod(&Method{
		Selector: "timesRepeat:",
		Params:   []string{"aBlock"},
		Body: &Seq{
			Temps: []string{"n"},
			Stmts: []Node{
				assign(tempRef("n"), lit(0)),
				msg(blk(msg(tempRef("n"), "<", &SelfRef{})), "whileTrue:",
					blk(
						msg(argRef("aBlock"), "value"),
						assign(tempRef("n"), msg(tempRef("n"), "+", lit(1))),
					)),
				ret(&SelfRef{}),
			},
		},
	})
	integer.AddMethod(&Method{
		Selector: "to:do:",
		Params:   []string{"stop", "aBlock"},
		Body: &Seq{
			Temps: []string{"i"},
			Stmts: []Node{
				assign(tempRef("i"), &SelfRef{}),
				msg(blk(msg(tempRef("i"), "<=", argRef("stop"))), "whileTrue:",
					blk(
						msg(argRef("aBlock"), "value:", tempRef("i")),
						assign(tempRef("i"), msg(tempRef("i"), "+", lit(1))),
					)),
				ret(&SelfRef{}),
			},
		},
	})

	// Float.
	float := in.FloatClass
	float.AddMethod(primMethod("+", []string{"aNumber"}, 41))
	float.AddMethod(primMethod("-", []string{"aNumber"}, 42))
	float.AddMethod(primMethod("<", []string{"aNumber"}, 43))
	float.AddMethod(primMethod(">", []string{"aNumber"}, 44))
	float.AddMethod(primMethod("<=", []string{"aNumber"}, 45))
	float.AddMethod(primMethod(">=", []string{"aNumber"}, 46))
	float.AddMethod(primMethod("=", []string{"aNumber"}, 47))
	float.AddMethod(primMethod("~=", []string{"aNumber"}, 48))
	float.AddMethod(primMethod("*", []string{"aNumber"}, 49))
	float.AddMethod(primMethod("/", []string{"aNumber"}, 50))
	float.AddMethod(NewMethod("negated", nil,
		body(ret(msg(&FloatLit{}, "-", &SelfRef{})))))
	float.AddMethod(NewMethod("abs", nil,
		body(ret(msg(msg(&SelfRef{}, "<", &FloatLit{}), "ifTrue:ifFalse:",
			blk(msg(&SelfRef{}, "negated")), blk(&SelfRef{}))))))

	// String and Symbol. Indexed access is inherited from Object;
	// Symbol inherits the whole String protocol but its at:put:
	// declines, so writes surface as primitive failures.
	str := in.StringClass
	str.AddMethod(primMethod(",", []string{"aString"}, 260))
	str.AddMethod(primMethod("=", []string{"aString"}, 263))
	str.AddMethod(primMethod("asSymbol", nil, 261))
	str.AddMethod(NewMethod("asString", nil, body(ret(&SelfRef{}))))
	str.AddMethod(NewMethod("isEmpty", nil,
		body(ret(msg(msg(&SelfRef{}, "size"), "=", lit(0))))))
	str.AddMethod(NewMethod("notEmpty", nil,
		body(ret(msg(msg(&SelfRef{}, "isEmpty"), "not")))))

	sym := in.SymbolClass
	sym.AddMethod(primMethod("asString", nil, 262))
	sym.AddMethod(NewMethod("asSymbol", nil, body(ret(&SelfRef{}))))

	// Array.
	arr := in.ArrayClass
	arr.AddMethod(NewMethod("first", nil,
		body(ret(msg(&SelfRef{}, "at:", lit(1))))))
	arr.AddMethod(NewMethod("last", nil,
		body(ret(msg(&SelfRef{}, "at:", msg(&SelfRef{}, "size"))))))
	arr.AddMethod(NewMethod("isEmpty", nil,
		body(ret(msg(msg(&SelfRef{}, "size"), "=", lit(0))))))
	arr.AddMethod(NewMethod("notEmpty", nil,
		body(ret(msg(msg(&SelfRef{}, "isEmpty"), "not")))))
	arr.AddMethod(&Method{
		Selector: "do:",
		Params:   []string{"aBlock"},
		Body: &Seq{
			Temps: []string{"i"},
			Stmts: []Node{
				assign(tempRef("i"), lit(1)),
				msg(blk(msg(tempRef("i"), "<=", msg(&SelfRef{}, "size"))), "whileTrue:",
					blk(
						msg(argRef("aBlock"), "value:", msg(&SelfRef{}, "at:", tempRef("i"))),
						assign(tempRef("i"), msg(tempRef("i"), "+", lit(1))),
					)),
				ret(&SelfRef{}),
			},
		},
	})
	arr.AddMethod(&Method{
		Selector: "collect:",
		Params:   []string{"aBlock"},
		Body: &Seq{
			Temps: []string{"out", "i"},
			Stmts: []Node{
				assign(tempRef("out"),
					msg(&GlobalRef{Name: "Array"}, "basicNew:", msg(&SelfRef{}, "size"))),
				assign(tempRef("i"), lit(1)),
				msg(blk(msg(tempRef("i"), "<=", msg(&SelfRef{}, "size"))), "whileTrue:",
					blk(
						msg(tempRef("out"), "at:put:", tempRef("i"),
							msg(argRef("aBlock"), "value:", msg(&SelfRef{}, "at:", tempRef("i")))),
						assign(tempRef("i"), msg(tempRef("i"), "+", lit(1))),
					)),
				ret(tempRef("out")),
			},
		},
	})

	// BlockClosure.
	block := in.BlockClass
	block.AddMethod(primMethod("value", nil, 201))
	block.AddMethod(primMethod("value:", []string{"first"}, 202))
	block.AddMethod(primMethod("value:value:", []string{"first", "second"}, 203))
	block.AddMethod(primMethod("value:value:value:", []string{"first", "second", "third"}, 204))
	block.AddMethod(primMethod("valueWithArguments:", []string{"anArray"}, 205))
	block.AddMethod(primMethod("whileTrue:", []string{"aBlock"}, 206))
	block.AddMethod(primMethod("whileFalse:", []string{"aBlock"}, 207))
	block.AddMethod(primMethod("numArgs", nil, 208))
	block.AddMethod(NewMethod("whileTrue", nil,
		body(ret(msg(&SelfRef{}, "whileTrue:", blk())))))
	block.AddMethod(NewMethod("whileFalse", nil,
		body(ret(msg(&SelfRef{}, "whileFalse:", blk())))))

	// Class. These sit on the instance side of Class, reached by the
	// class-receiver fallback, so every class answers them.
	cls := in.ClassClass
	cls.AddMethod(primMethod("name", nil, 113))
	cls.AddMethod(primMethod("superclass", nil, 114))
	cls.AddMethod(primMethod("selectors", nil, 115))
}

// ---------------------------------------------------------------------------
// Node builders for the hand-assembled kernel bodies.
// ---------------------------------------------------------------------------

// primMethod builds a kernel method tagged with primitive id whose
// fallback body resends primitiveFailed.
func primMethod(selector string, params []string, id int) *Method {
	return &Method{
		Selector:  selector,
		Params:    params,
		Primitive: id,
		Body: body(
			ret(msg(&SelfRef{}, "primitiveFailed")),
		),
	}
}

func msg(recv Node, selector string, args ...Node) *Send {
	return &Send{Receiver: recv, Selector: selector, Args: args}
}

func ret(v Node) *Return { return &Return{Value: v} }

func assign(target Node, v Node) *Assign { return &Assign{Target: target, Value: v} }

func body(stmts ...Node) *Seq { return &Seq{Stmts: stmts} }

func blk(stmts ...Node) *BlockLit {
	return &BlockLit{Body: &Seq{Stmts: stmts}}
}

func argRef(name string) *ArgRef { return &ArgRef{Name: name} }

func tempRef(name string) *TempRef { return &TempRef{Name: name} }

func lit(v int64) *IntLit { return &IntLit{Value: v} }
