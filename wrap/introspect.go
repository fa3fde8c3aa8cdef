package wrap

import (
	"fmt"
	"go/constant"
	"go/types"
	"strings"

	"golang.org/x/tools/go/packages"
)

// IntrospectPackage loads a Go package by import path and returns its
// API model. The include filter, when non-nil, restricts which
// exported names are kept.
func IntrospectPackage(importPath string, include map[string]bool) (*PackageModel, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes,
	}

	pkgs, err := packages.Load(cfg, importPath)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", importPath, err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found for %s", importPath)
	}
	if len(pkgs[0].Errors) > 0 {
		return nil, fmt.Errorf("package errors in %s: %v", importPath, pkgs[0].Errors)
	}

	pkg := pkgs[0]
	if pkg.Types == nil {
		return nil, fmt.Errorf("no type information for %s", importPath)
	}

	model := &PackageModel{
		ImportPath: importPath,
		Name:       pkg.Name,
	}

	qual := qualifier(pkg.Types)
	scope := pkg.Types.Scope()

	// Scope names come back sorted, which is what makes the primitive
	// numbering reproducible across runs.
	for _, name := range scope.Names() {
		if include != nil && !include[name] {
			continue
		}

		obj := scope.Lookup(name)
		if !obj.Exported() {
			continue
		}

		switch o := obj.(type) {
		case *types.Func:
			sig := o.Type().(*types.Signature)
			model.Functions = append(model.Functions, functionModel(o.Name(), sig, false, "", qual))

		case *types.TypeName:
			if tm := typeModel(o, qual); tm != nil {
				model.Types = append(model.Types, *tm)
			}

		case *types.Const:
			model.Constants = append(model.Constants, constantModel(o, qual))
		}
	}

	return model, nil
}

func typeModel(tn *types.TypeName, qual types.Qualifier) *TypeModel {
	named, ok := tn.Type().(*types.Named)
	if !ok {
		return nil
	}

	tm := &TypeModel{Name: tn.Name()}

	if st, ok := named.Underlying().(*types.Struct); ok {
		tm.IsStruct = true
		for i := 0; i < st.NumFields(); i++ {
			f := st.Field(i)
			if f.Exported() {
				tm.Fields = append(tm.Fields, FieldModel{
					Name:    f.Name(),
					TypeStr: types.TypeString(f.Type(), qual),
				})
			}
		}
	}

	// Pointer-receiver methods defined directly on the type.
	mset := types.NewMethodSet(types.NewPointer(named))
	for i := 0; i < mset.Len(); i++ {
		sel := mset.At(i)
		fn, ok := sel.Obj().(*types.Func)
		if !ok || !fn.Exported() {
			continue
		}
		if len(sel.Index()) > 1 {
			continue // promoted from an embedded field
		}
		sig := fn.Type().(*types.Signature)
		tm.Methods = append(tm.Methods, functionModel(fn.Name(), sig, true, "*"+tn.Name(), qual))
	}

	return tm
}

func constantModel(c *types.Const, qual types.Qualifier) ConstantModel {
	val := c.Val()
	var rendered string
	switch val.Kind() {
	case constant.String:
		rendered = constant.StringVal(val)
	case constant.Float:
		// ExactString yields rationals like 1/3; the short decimal
		// form is what a stub literal needs.
		rendered = val.String()
	default:
		rendered = val.ExactString()
	}
	return ConstantModel{
		Name:    c.Name(),
		TypeStr: types.TypeString(c.Type(), qual),
		Value:   rendered,
	}
}

func functionModel(name string, sig *types.Signature, isMethod bool, recvType string, qual types.Qualifier) FunctionModel {
	fm := FunctionModel{
		Name:     name,
		IsMethod: isMethod,
		RecvType: recvType,
	}

	params := sig.Params()
	for i := 0; i < params.Len(); i++ {
		p := params.At(i)
		ts := types.TypeString(p.Type(), qual)
		if sig.Variadic() && i == params.Len()-1 {
			ts = "..." + strings.TrimPrefix(ts, "[]")
		}
		fm.Params = append(fm.Params, ParamModel{Name: p.Name(), TypeStr: ts})
	}

	results := sig.Results()
	for i := 0; i < results.Len(); i++ {
		r := results.At(i)
		fm.Results = append(fm.Results, ParamModel{
			Name:    r.Name(),
			TypeStr: types.TypeString(r.Type(), qual),
		})
	}

	if results.Len() > 0 && isErrorType(results.At(results.Len()-1).Type()) {
		fm.ReturnsErr = true
	}

	return fm
}

var errorType = types.Universe.Lookup("error").Type()

func isErrorType(t types.Type) bool {
	return types.Identical(t, errorType)
}

func qualifier(pkg *types.Package) types.Qualifier {
	return func(other *types.Package) string {
		if other == pkg {
			return ""
		}
		return other.Name()
	}
}
