// Package reactive provides the observable cells behind the router's active
// URL and the computations that re-run when those cells change.
//
// A Cell holds a value. Reading it with Get inside a running Computation
// subscribes that computation; Peek reads without subscribing. Setting a new
// value marks every subscriber dirty, and dirty computations re-run.
//
//	url := reactive.NewCell("")
//	c := reactive.Autorun(func(c *reactive.Computation) {
//	    fmt.Println("now at", url.Get())
//	})
//	url.Set("/users/1") // prints "now at /users/1"
//	c.Stop()
//
// Dependency tracking is per goroutine: a Computation records the cells read
// on the goroutine that runs it.
package reactive
