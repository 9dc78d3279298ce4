package tir

// movable computes, for every structure in structs, whether it is
// *movable*: movable structures can be relocated with a bitwise copy and
// need no destructor call, matching original_source/src/tir.rs's
// TirStructure::is_movable. A structure is movable iff the user supplied
// neither a "copy" nor a "drop" method AND every by-value structure
// member is itself movable, recursively. Pointer members never affect
// movability: a pointer is always a plain cell copy regardless of what
// it points to.
func movable(structs map[string]Structure) (map[string]bool, error) {
	result := map[string]bool{}
	visiting := map[string]bool{}

	var resolve func(name string) (bool, error)
	resolve = func(name string) (bool, error) {
		if v, ok := result[name]; ok {
			return v, nil
		}
		if visiting[name] {
			// A structure that recursively contains itself by value is
			// impossible to lay out; treat the cycle as non-movable so the
			// default-copy/drop synthesis pass below leaves it alone
			// rather than looping.
			return false, nil
		}
		s, ok := structs[name]
		if !ok {
			return false, errf("structure %q referenced but not defined", name)
		}
		visiting[name] = true
		defer delete(visiting, name)

		if s.HasCopy || s.HasDrop {
			result[name] = false
			return false, nil
		}

		m := true
		for _, member := range s.Members {
			mm, err := memberMovable(member.Type, structs, resolve)
			if err != nil {
				return false, err
			}
			if !mm {
				m = false
				break
			}
		}
		result[name] = m
		return m, nil
	}

	for name := range structs {
		if _, err := resolve(name); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func memberMovable(t Type, structs map[string]Structure, resolve func(string) (bool, error)) (bool, error) {
	switch t := t.(type) {
	case TPointer:
		return true, nil
	case TStructure:
		return resolve(t.Name)
	default:
		return true, nil
	}
}

// synthesizeDefaults adds an automatic "copy" and "drop" method to every
// movable structure that doesn't already define one, and validates the
// signature of any user-supplied copy/drop on a non-movable structure
// (spec §4.5: a structure's copy constructor must take the structure by
// pointer and return it by value; its destructor must take the structure
// by pointer and return void).
func synthesizeDefaults(structs map[string]Structure, mv map[string]bool) error {
	for name, s := range structs {
		if mv[name] {
			if !s.HasCopy {
				s.Methods = append(s.Methods, Function{
					Name:       "copy",
					Params:     []Param{{Name: "self", Type: TPointer{Inner: TStructure{Name: name}}}},
					ReturnType: TStructure{Name: name},
					Body: []Statement{
						Return{Value: Deref{Value: Var{Name: "self"}}},
					},
				})
			}
			if !s.HasDrop {
				s.Methods = append(s.Methods, Function{
					Name:       "drop",
					Params:     []Param{{Name: "self", Type: TPointer{Inner: TStructure{Name: name}}}},
					ReturnType: TVoid{},
					Body:       nil,
				})
			}
			structs[name] = s
			continue
		}

		for _, m := range s.Methods {
			if m.Name == "copy" {
				if err := validCopySignature(m, name); err != nil {
					return err
				}
			}
			if m.Name == "drop" {
				if err := validDropSignature(m, name); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func validCopySignature(f Function, structName string) error {
	if len(f.Params) != 1 {
		return errf("invalid copy constructor signature for %q: must take exactly one parameter (self)", structName)
	}
	ptr, ok := f.Params[0].Type.(TPointer)
	if !ok {
		return errf("invalid copy constructor signature for %q: self must be taken by pointer", structName)
	}
	if st, ok := ptr.Inner.(TStructure); !ok || st.Name != structName {
		return errf("invalid copy constructor signature for %q: self must point to %s", structName, structName)
	}
	if st, ok := f.ReturnType.(TStructure); !ok || st.Name != structName {
		return errf("invalid copy constructor signature for %q: must return %s by value", structName, structName)
	}
	return nil
}

func validDropSignature(f Function, structName string) error {
	if len(f.Params) != 1 {
		return errf("invalid drop destructor signature for %q: must take exactly one parameter (self)", structName)
	}
	ptr, ok := f.Params[0].Type.(TPointer)
	if !ok {
		return errf("invalid drop destructor signature for %q: self must be taken by pointer", structName)
	}
	if st, ok := ptr.Inner.(TStructure); !ok || st.Name != structName {
		return errf("invalid drop destructor signature for %q: self must point to %s", structName, structName)
	}
	if _, ok := f.ReturnType.(TVoid); !ok {
		return errf("invalid drop destructor signature for %q: must return void", structName)
	}
	return nil
}

// checkNoExplicitCopyCalls rejects any direct `x.copy()` call: copy
// constructors are invoked implicitly by the lowering passes wherever a
// non-movable structure is assigned or passed by value, never by the
// user directly (spec §4.5's ExplicitCopy error).
func checkNoExplicitCopyCalls(fn Function) error {
	for _, s := range fn.Body {
		if err := checkStmtNoExplicitCopy(s); err != nil {
			return err
		}
	}
	return nil
}

func checkStmtNoExplicitCopy(s Statement) error {
	switch s := s.(type) {
	case Define:
		return checkExprNoExplicitCopy(s.Init)
	case Assign:
		if err := checkExprNoExplicitCopy(s.Target); err != nil {
			return err
		}
		return checkExprNoExplicitCopy(s.Value)
	case If:
		for _, b := range s.Body {
			if err := checkStmtNoExplicitCopy(b); err != nil {
				return err
			}
		}
	case While:
		for _, b := range s.Body {
			if err := checkStmtNoExplicitCopy(b); err != nil {
				return err
			}
		}
	case For:
		for _, b := range s.Body {
			if err := checkStmtNoExplicitCopy(b); err != nil {
				return err
			}
		}
	case IfElseIf:
		body := append(append([]Statement{}, s.ThenBody...), s.ElseBody...)
		for _, c := range s.ElseIfs {
			body = append(body, c.Body...)
		}
		return checkNoExplicitCopyCalls(Function{Body: body})
	case RangeFor:
		return checkNoExplicitCopyCalls(Function{Body: s.Body})
	case CompoundAssign:
		if err := checkExprNoExplicitCopy(s.Target); err != nil {
			return err
		}
		return checkExprNoExplicitCopy(s.Value)
	case Return:
		return checkExprNoExplicitCopy(s.Value)
	case ExprStmt:
		return checkExprNoExplicitCopy(s.Value)
	}
	return nil
}

func checkExprNoExplicitCopy(e Expression) error {
	switch e := e.(type) {
	case nil:
		return nil
	case MethodCall:
		if e.Method == "copy" || e.Method == "drop" {
			return errf("%q must not be called explicitly; it runs automatically on assignment and scope exit", e.Method)
		}
		if err := checkExprNoExplicitCopy(e.Recv); err != nil {
			return err
		}
		for _, a := range e.Args {
			if err := checkExprNoExplicitCopy(a); err != nil {
				return err
			}
		}
	case Call:
		for _, a := range e.Args {
			if err := checkExprNoExplicitCopy(a); err != nil {
				return err
			}
		}
	case Binary:
		if err := checkExprNoExplicitCopy(e.Left); err != nil {
			return err
		}
		return checkExprNoExplicitCopy(e.Right)
	case Unary:
		return checkExprNoExplicitCopy(e.Value)
	case Refer:
		return checkExprNoExplicitCopy(e.Value)
	case Deref:
		return checkExprNoExplicitCopy(e.Value)
	case Index:
		if err := checkExprNoExplicitCopy(e.Ptr); err != nil {
			return err
		}
		return checkExprNoExplicitCopy(e.Idx)
	}
	return nil
}
