package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cli "github.com/spf13/pflag"

	"rita/internal/ipc"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: rita-ctl [--socket path] ask <text...> | listen <audio-file>\n")
	cli.PrintDefaults()
}

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket path")
	cli.Usage = usage
	cli.Parse()

	args := cli.Args()
	if len(args) < 2 {
		usage()
		os.Exit(2)
	}

	var req ipc.Request
	switch args[0] {
	case ipc.CmdAsk:
		req = ipc.Request{Cmd: ipc.CmdAsk, Text: strings.Join(args[1:], " ")}
	case ipc.CmdListen:
		path, err := filepath.Abs(args[1])
		if err != nil {
			fmt.Println("bad path:", err)
			os.Exit(1)
		}
		req = ipc.Request{Cmd: ipc.CmdListen, Path: path}
	default:
		usage()
		os.Exit(2)
	}

	if err := ipc.Send(*socket, req); err != nil {
		fmt.Println("rita not running:", err)
		os.Exit(1)
	}
}
