package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"trollbox/client"
	"trollbox/domain"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

const usage = `usage:
  client send <text...>   post a message as $ALIAS
  client tail             print the recent history then live messages`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	if len(args) == 0 {
		return errors.New(usage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := client.Dial(config.Address, config.Alias)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", config.Address, err)
	}
	defer func() { _ = c.Close() }()

	switch args[0] {
	case "send":
		text := strings.Join(args[1:], " ")
		sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := c.Send(sendCtx, text); err != nil {
			return fmt.Errorf("message rejected: %w", err)
		}
		log.Debug("Message sent", "alias", config.Alias)
		return nil
	case "tail":
		log.Debug("Streaming messages", "address", config.Address)
		return c.Stream(ctx, func(m domain.Message) error {
			_, err := fmt.Fprintln(out, formatLine(m, config.Colours))
			return err
		})
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func formatLine(m domain.Message, colours bool) string {
	at := m.SentAt.Local().Format("15:04:05")
	alias := m.Alias
	if colours {
		at = color.New(color.FgCyan).Render(at)
		alias = color.New(color.Bold, color.FgGreen).Render(alias)
	}
	return fmt.Sprintf("%s %s: %s", at, alias, m.Text)
}
