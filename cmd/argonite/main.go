// Command argonite hashes and verifies passwords on the command line.
//
// The password is read from stdin: without echo when stdin is a terminal, otherwise as the
// first line of piped input.
//
//	argonite hash [--memory N] [--time N] [--parallelism N] [--length N]
//	argonite verify <encoded>
//
// Exit codes: 0 on success or a matching password, 1 on a mismatched or malformed credential,
// 2 on usage errors.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/SuhanArda/argonite/password"
)

const success, failure, invalid = 0, 1, 2

var (
	memory      = flag.Uint32("memory", 64*1024, "memory cost in 1 KiB blocks")
	time        = flag.Uint32("time", 3, "number of passes over memory")
	parallelism = flag.Uint8("parallelism", 1, "number of independent lanes")
	length      = flag.Uint32("length", 32, "digest length in bytes")
)

func main() { os.Exit(run()) }

func run() int {
	flag.Usage = usage
	flag.Parse()

	switch args := flag.Args(); {
	case len(args) == 1 && args[0] == "hash":
		return hash()
	case len(args) == 2 && args[0] == "verify":
		return verify(args[1])
	default:
		usage()
		return invalid
	}
}

func hash() int {
	pw, err := readPassword()
	if err != nil {
		fmt.Fprintln(os.Stderr, "argonite:", err)
		return invalid
	}

	params := password.Params{
		Memory:      *memory,
		Iterations:  *time,
		Parallelism: *parallelism,
		SaltLength:  16,
		KeyLength:   *length,
	}
	encoded, err := params.Hash(pw)
	if err != nil {
		fmt.Fprintln(os.Stderr, "argonite:", err)
		return invalid
	}

	fmt.Println(encoded)
	return success
}

func verify(encoded string) int {
	pw, err := readPassword()
	if err != nil {
		fmt.Fprintln(os.Stderr, "argonite:", err)
		return invalid
	}

	if !password.Verify(pw, encoded) {
		fmt.Println("mismatch")
		return failure
	}
	fmt.Println("ok")
	return success
}

func readPassword() ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "password: ")
		defer fmt.Fprintln(os.Stderr)
		return term.ReadPassword(fd)
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return nil, err
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  argonite hash [--memory N] [--time N] [--parallelism N] [--length N]")
	fmt.Fprintln(os.Stderr, "  argonite verify <encoded>")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Options:")
	flag.PrintDefaults()
}
