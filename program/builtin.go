package program

import (
	"github.com/viant/minikernel/abi"
	"github.com/viant/minikernel/hal"
	"github.com/viant/minikernel/user"
)

// Builtin returns a registry with the stock demo programs
func Builtin() *Registry {
	r := New()
	r.RegisterMain("init", initMain)
	r.RegisterMain("simplon", simplon)
	r.RegisterMain("sleeper", sleeper)
	r.RegisterMain("producer", producer)
	r.RegisterMain("consumer", consumer)
	r.RegisterMain("faulty", faulty)
	r.Register("runaway", func(cpu hal.CPU) {
		user.New(cpu).Printf("runaway: returning without end_process\n")
	})
	return r
}

func initMain(sys *user.Sys) {
	sys.Printf("init: pid %d\n", sys.GetPID())
	for _, name := range []string{"simplon", "sleeper", "producer", "consumer", "faulty"} {
		if pid, err := sys.CreateProcess(name); err != nil {
			sys.Printf("init: %v: %v\n", name, err)
		} else {
			sys.Printf("init: started %v as %d\n", name, pid)
		}
	}
	var times abi.Times
	ticks := sys.Times(&times)
	sys.Printf("init: ends at tick %d, user %d, system %d\n", ticks, times.User, times.System)
}

func simplon(sys *user.Sys) {
	for i := 0; i < 5; i++ {
		sys.Spin(10)
	}
	sys.Printf("simplon: i %d\n", 5)
	sys.Printf("simplon: ends\n")
}

func sleeper(sys *user.Sys) {
	pid := sys.GetPID()
	for i := 1; i <= 2; i++ {
		sys.Printf("sleeper %d: sleeping %d second\n", pid, i)
		sys.Sleep(1)
	}
	var times abi.Times
	ticks := sys.Times(&times)
	sys.Printf("sleeper %d: tick %d, user %d, system %d\n", pid, ticks, times.User, times.System)
}

func producer(sys *user.Sys) {
	desc, err := sys.MutexCreate("buffer", abi.Recursive)
	if err != nil {
		sys.Printf("producer: %v\n", err)
		return
	}
	for i := 0; i < 3; i++ {
		_ = sys.Lock(desc)
		_ = sys.Lock(desc)
		sys.Printf("producer: item %d\n", i)
		sys.Spin(5)
		_ = sys.Unlock(desc)
		_ = sys.Unlock(desc)
		sys.Sleep(1)
	}
	_ = sys.MutexClose(desc)
}

func consumer(sys *user.Sys) {
	desc, err := sys.MutexOpen("buffer")
	if err != nil {
		sys.Printf("consumer: %v\n", err)
		return
	}
	for i := 0; i < 3; i++ {
		if err := sys.Lock(desc); err != nil {
			sys.Printf("consumer: %v\n", err)
			return
		}
		sys.Printf("consumer: item %d\n", i)
		_ = sys.Unlock(desc)
		sys.Sleep(1)
	}
	_ = sys.MutexClose(desc)
}

func faulty(sys *user.Sys) {
	sys.Printf("faulty: dividing by zero\n")
	sys.Printf("faulty: %d\n", sys.Divide(1, 0))
}
