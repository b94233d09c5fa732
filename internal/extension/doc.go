// Package extension is the panel's extension platform.
//
// An extension is a compiled-in module that implements [Extension]: it is
// initialized once at boot, may contribute HTTP routes, and answers named
// calls from other extensions without either side knowing the other's
// concrete type.
//
// # Implementing an Extension
//
//	type Billing struct {
//	    extension.Base
//	}
//
//	func (b *Billing) Initialize(ctx context.Context, st *state.State) error {
//	    return st.DB.AutoMigrate(&Invoice{})
//	}
//
//	func (b *Billing) InitializeRouter(ctx context.Context, st *state.State, routes extension.Routes) extension.Routes {
//	    return routes.Get("/billing/invoices", b.listInvoices)
//	}
//
//	func (b *Billing) ProcessCall(ctx context.Context, name string, args extension.Args) (any, bool) {
//	    switch name {
//	    case "billing.quote":
//	        plan, ok := extension.Arg[string](args, 0)
//	        if !ok {
//	            return extension.ErrArgType, true
//	        }
//	        return b.quote(plan), true
//	    }
//	    return nil, false
//	}
//
// # Call contract
//
// Arguments and results cross the registry as untyped values. The concrete
// type behind each position is agreed per call name between caller and
// callee and documented next to the handler. A mismatch is a programming
// error; use [Arg], [As] and [CallAs] so that a mismatch surfaces as
// ErrArgType/ErrResultType instead of a panic.
//
// # Registry
//
// [New] takes ownership of the compiled-in list and rejects duplicate
// identifiers. [Registry.Init] runs every hook sequentially in registration
// order under the write lock and returns the composed route handler.
// [Registry.Call] scans extensions in registration order under the read lock
// and returns the first handled result. An unhandled call is not an error.
package extension
