package compiler

import (
	"fmt"
	"strings"

	"github.com/chazu/treepie/interp"
)

// ---------------------------------------------------------------------------
// Compilation entry points
// ---------------------------------------------------------------------------

// Compile parses and binds an expression sequence, producing an
// anonymous doIt method ready for ExecuteMethod. The source may open
// with a temporary declaration:
//
//	| sum | sum := 3 + 4. sum * 2
//
// The value of the last statement becomes the method's return value.
func Compile(source string) (*interp.Method, error) {
	p := NewParser(source)

	var temps []string
	if p.curTokenIs(TokenBar) {
		temps = p.parseTemporaries()
	}
	stmts := p.ParseStatements()
	if !p.curTokenIs(TokenEOF) {
		p.errorf("unexpected %s after statements", p.curToken.Type)
	}
	if len(p.Errors()) > 0 {
		return nil, fmt.Errorf("parse errors: %s", strings.Join(p.Errors(), "; "))
	}

	b := NewBinder(nil)
	b.push(nil, temps)
	bound := b.bindStatements(stmts)
	b.pop()
	if len(b.Errors()) > 0 {
		return nil, fmt.Errorf("bind errors: %s", strings.Join(b.Errors(), "; "))
	}

	return &interp.Method{
		Selector: "doIt",
		Body:     &interp.Seq{Temps: temps, Stmts: returnLast(bound)},
		Source:   source,
	}, nil
}

// CompileMethodIn binds a parsed method definition against a class,
// turning bind diagnostics into a single error. The caller installs
// the result with AddMethod or AddClassMethod.
func CompileMethodIn(def *MethodDef, class *interp.Class) (*interp.Method, error) {
	m, diags := Analyze(def, class)
	if len(diags) > 0 {
		return nil, fmt.Errorf("bind errors: %s", strings.Join(diags, "; "))
	}
	return m, nil
}

// returnLast wraps the final statement in an explicit return so the
// doIt method answers its value instead of the receiver.
func returnLast(stmts []interp.Node) []interp.Node {
	if len(stmts) == 0 {
		return stmts
	}
	last := stmts[len(stmts)-1]
	if _, ok := last.(*interp.Return); !ok {
		stmts[len(stmts)-1] = &interp.Return{Value: last}
	}
	return stmts
}

// ---------------------------------------------------------------------------
// Source file loading
// ---------------------------------------------------------------------------

// LoadSource files a source string into the interpreter. Class
// definitions register in order, so a superclass must be defined
// before its subclasses, either earlier in the same source or already
// known to the interpreter. Top-level statements execute after all
// classes are installed; the value of the last one is returned, or
// nil when the source holds only definitions.
func LoadSource(in *interp.Interp, source string) (interp.Value, error) {
	p := NewParser(source)
	sf := p.ParseSourceFile()
	if len(p.Errors()) > 0 {
		return nil, fmt.Errorf("parse errors: %s", strings.Join(p.Errors(), "; "))
	}

	for _, def := range sf.Classes {
		if _, err := installClassDef(in, def); err != nil {
			return nil, err
		}
	}

	if len(sf.Statements) == 0 {
		return interp.Nil, nil
	}

	b := NewBinder(nil)
	b.push(nil, nil)
	stmts := b.bindStatements(sf.Statements)
	b.pop()
	if len(b.Errors()) > 0 {
		return nil, fmt.Errorf("bind errors: %s", strings.Join(b.Errors(), "; "))
	}

	doIt := &interp.Method{
		Selector: "doIt",
		Body:     &interp.Seq{Stmts: returnLast(stmts)},
	}
	return in.ExecuteMethod(doIt, interp.Nil, nil)
}

// CheckSource parses and binds source without installing anything,
// returning every diagnostic found. Diagnostics carry a "line N:"
// prefix. lookup resolves superclass names against the live system;
// when it is nil, or a superclass is unknown, methods still bind
// against a scratch class rooted at nothing, so only inherited-slot
// resolution degrades.
func CheckSource(source string, lookup func(string) *interp.Class) []string {
	p := NewParser(source)
	sf := p.ParseSourceFile()
	if len(p.Errors()) > 0 {
		return p.Errors()
	}

	var diags []string
	local := make(map[string]*interp.Class)
	for _, def := range sf.Classes {
		var super *interp.Class
		if def.Superclass != "nil" {
			super = local[def.Superclass]
			if super == nil && lookup != nil {
				super = lookup(def.Superclass)
				if super == nil {
					diags = append(diags, fmt.Sprintf("line %d: unknown superclass %s for class %s",
						def.SpanVal.Start.Line, def.Superclass, def.Name))
				}
			}
		}
		cls := interp.NewClassWithInstVars(def.Name, super, def.InstanceVariables)
		local[def.Name] = cls

		for _, mdef := range def.Methods {
			_, errs := Analyze(mdef, cls)
			diags = append(diags, errs...)
		}
		for _, mdef := range def.ClassMethods {
			_, errs := Analyze(mdef, nil)
			diags = append(diags, errs...)
		}
	}

	if len(sf.Statements) > 0 {
		b := NewBinder(nil)
		b.push(nil, nil)
		b.bindStatements(sf.Statements)
		b.pop()
		diags = append(diags, b.Errors()...)
	}

	return diags
}

// installClassDef registers one class definition and compiles its
// methods. Instance methods bind against the new class so instance
// variables resolve to slots; class-side methods bind with no class,
// as the receiver there is the class object itself.
func installClassDef(in *interp.Interp, def *ClassDef) (*interp.Class, error) {
	var super *interp.Class
	if def.Superclass != "nil" {
		super = in.Classes.Lookup(def.Superclass)
		if super == nil {
			return nil, fmt.Errorf("unknown superclass %s for class %s", def.Superclass, def.Name)
		}
	}
	cls := in.DefineClass(def.Name, super, def.InstanceVariables, false)

	for _, mdef := range def.Methods {
		m, err := CompileMethodIn(mdef, cls)
		if err != nil {
			return nil, fmt.Errorf("%s>>%s: %w", def.Name, mdef.Selector, err)
		}
		cls.AddMethod(m)
	}
	for _, mdef := range def.ClassMethods {
		m, err := CompileMethodIn(mdef, nil)
		if err != nil {
			return nil, fmt.Errorf("%s class>>%s: %w", def.Name, mdef.Selector, err)
		}
		cls.AddClassMethod(m)
	}
	return cls, nil
}
