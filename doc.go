// Package minikernel boots a small multiprogramming kernel on a simulated
// single-CPU machine.
//
// The kernel keeps a fixed process table, schedules ready processes in FIFO
// order without preemption, lets processes sleep for whole seconds of clock
// ticks and offers named recursive and non-recursive mutexes. Processes are
// Go functions written against user.Sys; they enter the kernel through a
// system-call trap and run on their own goroutine, one at a time.
//
// The Service facade wires the machine, the kernel and the ambient services
// (logging, accounting, event bus, tracing) from a Config:
//
//	config := minikernel.DefaultConfig()
//	config.Init = "hello"
//	srv, _ := minikernel.New(minikernel.WithConfig(config),
//		minikernel.WithProgram("hello", func(sys *user.Sys) {
//			sys.Printf("hello from %d\n", sys.GetPID())
//		}))
//	err := srv.Run(ctx)
//
// For the system-call interface see the abi and user packages.
package minikernel
