// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Program rvjit compiles and runs raw bytecode.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"gate.computer/rvjit"
	"gate.computer/rvjit/abi"
	"gate.computer/rvjit/disasm"
	"gate.computer/rvjit/image"
	"gate.computer/rvjit/runner"
	"gate.computer/rvjit/runner/native"
	"gate.computer/rvjit/sbpf"
	"gate.computer/rvjit/trap"
	"golang.org/x/xerrors"
)

var (
	verbose = false
)

var versions = map[string]sbpf.Version{
	"v0": sbpf.V0,
	"v1": sbpf.V1,
	"v2": sbpf.V2,
	"v3": sbpf.V3,
}

func parseVersion(s string) (v sbpf.Version, err error) {
	v, found := versions[strings.ToLower(s)]
	if !found {
		err = xerrors.Errorf("unknown bytecode version: %q", s)
	}
	return
}

func readString(ctx *runner.Context, vmaddr, size uint64) (s string, err error) {
	b := make([]byte, size)
	for i := range b {
		x, ok := ctx.Memory().Load(vmaddr+uint64(i), 1)
		if !ok {
			err = xerrors.Errorf("string at 0x%x is not readable", vmaddr)
			return
		}
		b[i] = byte(x)
	}
	s = string(b)
	return
}

func registerSyscalls(s *runner.Syscalls) {
	s.Register("abort", func(*runner.Context, [5]uint64) (uint64, error) {
		return 0, xerrors.New("program aborted")
	})

	s.Register("sol_log_", func(ctx *runner.Context, args [5]uint64) (uint64, error) {
		msg, err := readString(ctx, args[0], args[1])
		if err != nil {
			return 0, err
		}
		ctx.Consume(args[1])
		log.Printf("program log: %s", msg)
		return 0, nil
	})

	s.Register("sol_log_64_", func(ctx *runner.Context, args [5]uint64) (uint64, error) {
		log.Printf("program log: 0x%x, 0x%x, 0x%x, 0x%x, 0x%x", args[0], args[1], args[2], args[3], args[4])
		return 0, nil
	})

	s.Register("sol_log_compute_units_", func(ctx *runner.Context, args [5]uint64) (uint64, error) {
		log.Printf("program log: %d units remaining", ctx.Remaining())
		return 0, nil
	})
}

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] bytecodefile\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	var (
		config    = rvjit.DefaultConfig()
		version   = "v0"
		entry     = 0
		budget    = uint64(1000000)
		heapSize  = 32 * 1024
		inputFile = ""
		seed      = ""
		dumpText  = false
		useNative = false
		trace     = false
	)

	flag.BoolVar(&verbose, "v", verbose, "verbose logging")
	flag.StringVar(&version, "version", version, "bytecode version (v0, v1, v2 or v3)")
	flag.IntVar(&entry, "entry", entry, "instruction index to start at")
	flag.Uint64Var(&budget, "budget", budget, "instruction budget")
	flag.IntVar(&heapSize, "heapsize", heapSize, "heap region size")
	flag.StringVar(&inputFile, "input", inputFile, "file to map as program input")
	flag.StringVar(&seed, "seed", seed, "diversification seed (random by default)")
	flag.IntVar(&config.MaxTextSize, "textsize", config.MaxTextSize, "maximum program text size")
	flag.Int64Var(&config.StackFrameSize, "framesize", config.StackFrameSize, "call frame size")
	flag.BoolVar(&config.EnableInstructionMeter, "meter", config.EnableInstructionMeter, "count executed instructions")
	flag.BoolVar(&config.EnableAddressTranslation, "translate", config.EnableAddressTranslation, "translate memory addresses")
	flag.BoolVar(&trace, "trace", trace, "log registers before every instruction")
	flag.BoolVar(&dumpText, "dumptext", dumpText, "disassemble the generated code to stdout")
	flag.BoolVar(&useNative, "native", useNative, "execute on the host processor")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	filename := flag.Arg(0)

	v, err := parseVersion(version)
	if err != nil {
		log.Fatal(err)
	}

	text, err := os.ReadFile(filename)
	if err != nil {
		log.Fatal(err)
	}

	var input []byte
	if inputFile != "" {
		input, err = os.ReadFile(inputFile)
		if err != nil {
			log.Fatal(err)
		}
	}

	if seed != "" {
		config.DiversificationSeed = []byte(seed)
	}
	config.EnableRegisterTracing = trace

	var machine runner.Machine
	if useNative {
		machine, err = native.New()
		if err != nil {
			log.Fatal(err)
		}
	} else {
		machine = runner.Emulator(0)
		config.Pages = image.HeapPages
	}

	syscalls := new(runner.Syscalls)
	registerSyscalls(syscalls)

	registry := new(abi.Functions)
	syscalls.Bind(machine, registry)

	prog := &sbpf.Program{
		Text:    text,
		Version: v,
		EntryPC: entry,
	}

	p, err := rvjit.Compile(prog, registry, config)
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	if verbose {
		log.Printf("%d instructions compiled into %d bytes of machine code", p.NumInsns(), len(p.Text()))
	}

	if dumpText {
		if err := disasm.FprintProgram(os.Stdout, p); err != nil {
			log.Fatal(err)
		}
		return
	}

	in := &runner.Input{
		Budget:   budget,
		ReadOnly: text,
		Heap:     make([]byte, heapSize),
		Input:    input,
	}
	if trace {
		in.Trace = func(regs *[abi.NumRegisters]uint64) {
			log.Printf("pc %d: %x", regs[abi.PCRegister], regs[:sbpf.NumRegs])
		}
	}

	res, err := runner.New(p, machine, syscalls).Run(in)
	if err != nil {
		log.Fatal(err)
	}

	if verbose {
		log.Printf("%d instructions consumed", res.Consumed)
	}

	if res.Err != nil {
		log.Fatalf("%v: %v", res, res.Err)
	}
	if res.Fault != 0 {
		log.Fatalf("%v: address 0x%x", res, res.Fault)
	}
	if res.Trap != trap.None {
		log.Fatal(res)
	}

	fmt.Println(res.Value)
}
