package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/runtimediag/daclib"
	"github.com/runtimediag/daclib/com"
	"github.com/runtimediag/daclib/dac"
	"github.com/runtimediag/daclib/loader"
)

func main() {
	var (
		dacPath     = flag.String("dac", "", "Path to the inspection library image")
		dumpPath    = flag.String("dump", "", "Path to a flat memory dump of the target")
		base        = flag.Uint64("base", 0, "Virtual address the dump is based at")
		machine     = flag.String("machine", "amd64", "Target machine (amd64, arm64, i386, armnt)")
		probe       = flag.String("probe", "", "Extra interface identifiers to probe (comma-separated GUIDs)")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *dacPath == "" || *dumpPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: dacinfo -dac <library> -dump <file> [-base addr] [-probe guid,...]")
		fmt.Fprintln(os.Stderr, "       dacinfo -dac <library> -dump <file> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		log, err := zap.NewDevelopment()
		if err == nil {
			dac.SetLogger(log)
			loader.SetLogger(log)
		}
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*dacPath, *dumpPath, *base, machineType(*machine)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*dacPath, *dumpPath, *base, machineType(*machine), *probe); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func machineType(name string) uint32 {
	switch strings.ToLower(name) {
	case "i386", "x86":
		return daclib.MachineI386
	case "armnt", "arm":
		return daclib.MachineARMNT
	case "arm64":
		return daclib.MachineARM64
	default:
		return daclib.MachineAMD64
	}
}

func run(dacPath, dumpPath string, base uint64, machine uint32, probe string) error {
	reader, err := daclib.OpenFileReader(dumpPath, base, machine, 1)
	if err != nil {
		return err
	}
	defer reader.Close()

	lib, err := dac.Load(reader, dacPath)
	if err != nil {
		return err
	}
	defer lib.Close()

	fmt.Printf("primary interface: %s ok\n", com.IIDIXCLRDataProcess)

	if sos, err := lib.SOS(); err != nil {
		fmt.Printf("secondary interface: %s unsupported\n", com.IIDISOSDacInterface)
	} else {
		fmt.Printf("secondary interface: %s ok\n", com.IIDISOSDacInterface)
		sos.Close()
	}

	for _, s := range strings.Split(probe, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		iid, err := com.FromString(s)
		if err != nil {
			return err
		}
		h, ok, err := dac.Acquire(lib, iid, dac.NewInterface)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Printf("capability %s: unsupported\n", iid)
			continue
		}
		fmt.Printf("capability %s: ok\n", iid)
		h.Close()
	}

	return nil
}
