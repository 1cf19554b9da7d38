package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	cli "github.com/spf13/pflag"

	"jarvis/internal/ipc"
)

func main() {
	socket := cli.StringP("socket", "s", ipc.SocketPath, "Control socket path")
	timeout := cli.DurationP("timeout", "t", 30*time.Second, "Reply timeout")
	cli.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: jarvis-ctl [flags] say <text> | stop | status")
		cli.PrintDefaults()
	}
	cli.Parse()

	args := cli.Args()
	if len(args) == 0 {
		cli.Usage()
		os.Exit(2)
	}

	msg := ipc.ControlMessage{Cmd: args[0], Text: strings.Join(args[1:], " ")}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	reply, err := ipc.Send(ctx, *socket, msg)
	if err != nil {
		fmt.Println("jarvis not running or command failed:", err)
		os.Exit(1)
	}

	switch {
	case reply.Text != "":
		fmt.Printf("JARVIS: %s (%s)\n", reply.Text, reply.Outcome)
	case reply.Outcome != "":
		fmt.Println(reply.Outcome)
	case reply.State != "":
		fmt.Println(reply.State)
	}
}
