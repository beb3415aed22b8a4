package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"mousedb"
)

func main() {
	rootCmd := mousedb.InitializeCLI()
	if len(os.Args) > 1 {
		rootCmd.SetArgs(os.Args[1:])
		if err := rootCmd.Execute(); err != nil {
			fmt.Println("Command error:", err)
			os.Exit(1)
		}
		return
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Println("mousedb filter REPL (type 'exit' to quit)")
	for {
		fmt.Print(">>> ")
		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("Error reading input:", err)
			return
		}

		input = strings.TrimSpace(input)
		if input == "exit" {
			fmt.Println("Exiting mousedb REPL.")
			break
		}

		args := strings.Fields(input)
		if len(args) == 0 {
			continue
		}

		rootCmd.SetArgs(args)
		if err := rootCmd.Execute(); err != nil {
			fmt.Println("Command error:", err)
		}
	}
}
