package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ainewsbot/config"
	"ainewsbot/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	url := flag.String("url", "http://localhost:"+config.GetEnvOrDefault("PORT", config.DefaultPort), "ainewsbot base URL")
	flag.Parse()

	program := tea.NewProgram(tui.NewModel(*url))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		fmt.Printf("Error running monitor: %v\n", err)
		os.Exit(1)
	}
}
