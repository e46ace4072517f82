package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"riverside/internal/auth"
)

// hashPassword handles `riverside hash-password`: it prompts for a login
// and prints the basic_auth block to paste into the config file.
func hashPassword(args []string) int {
	fs := flag.NewFlagSet("hash-password", flag.ExitOnError)
	username := fs.String("user", "", "Username (prompted when empty)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: riverside hash-password [-user NAME]\n\n")
		fmt.Fprintf(os.Stderr, "Prints an Argon2id password_hash for the basic_auth config block.\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	if *username == "" {
		fmt.Fprint(os.Stderr, "Enter username: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading username: %v\n", err)
			return 1
		}
		*username = strings.TrimSpace(line)
	}
	if *username == "" {
		fmt.Fprintln(os.Stderr, "Username cannot be empty")
		return 1
	}

	password, err := readPassword("Enter password:   ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		return 1
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password confirmation: %v\n", err)
		return 1
	}
	if password == "" {
		fmt.Fprintln(os.Stderr, "Password cannot be empty")
		return 1
	}
	if password != confirm {
		fmt.Fprintln(os.Stderr, "Passwords do not match")
		return 1
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("basic_auth:\n  username: %q\n  password_hash: %q\n", *username, hash)
	return 0
}

// readPassword reads a line without echo when stdin is a terminal.
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		return strings.TrimRight(line, "\r\n"), err
	}
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	return string(b), err
}
