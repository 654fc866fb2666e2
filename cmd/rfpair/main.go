// Command rfpair trains 433 MHz sockets to the house codes used by the panel.
//
// Put a socket into learn mode, run rfpair, and answer the prompt once the
// burst has been sent. Answering "y" repeats the burst for the same address.
//
// Usage:
//
//	rfpair [-config configs/config.yaml] [-address 0xA0001 ...]
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/nerrad567/rfpanel-core/internal/infrastructure/config"
	"github.com/nerrad567/rfpanel-core/internal/infrastructure/logging"
	"github.com/nerrad567/rfpanel-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/rfpanel-core/internal/power"
	"github.com/nerrad567/rfpanel-core/internal/transmit"
)

const defaultConfigPath = "configs/config.yaml"

// addressList collects repeated -address flags.
type addressList []uint32

func (a *addressList) String() string {
	parts := make([]string, len(*a))
	for i, addr := range *a {
		parts[i] = fmt.Sprintf("0x%X", addr)
	}
	return strings.Join(parts, ",")
}

func (a *addressList) Set(v string) error {
	addr, err := strconv.ParseUint(v, 0, 32)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", v, err)
	}
	*a = append(*a, uint32(addr))
	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("rfpair", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", configPathFromEnv(), "path to config.yaml")
	dryRun := fs.Bool("dry-run", false, "log commands instead of publishing them")
	var addresses addressList
	fs.Var(&addresses, "address", "house code to train (repeatable, overrides pairing.addresses)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := logging.New(cfg.Logging, "rfpair")
	defer log.Close()

	if len(addresses) == 0 {
		addresses = cfg.Pairing.Addresses
	}

	var gw power.Gateway
	if *dryRun || cfg.Transmit.Driver == "noop" {
		gw = transmit.NewNoop(log)
	} else {
		client, connErr := mqtt.Connect(cfg.MQTT)
		if connErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", connErr)
		}
		defer client.Close()
		client.SetLogger(log.Component("mqtt"))
		gw = transmit.NewMQTT(client, byte(cfg.Transmit.QoS), "rfpair", log)
	}

	result, err := transmit.Pair(ctx, gw, addresses, transmit.PairOptions{
		Repeats:  cfg.Pairing.Repeats,
		Interval: cfg.GetPairingInterval(),
		Logger:   log,
	}, promptConfirmer(in, out))

	fmt.Fprintf(out, "paired %d of %d sockets\n", len(result.Paired), len(addresses))
	if errors.Is(err, transmit.ErrNoAddresses) {
		return fmt.Errorf("%w: set pairing.addresses or pass -address", err)
	}
	return err
}

// promptConfirmer asks on out and reads y/n answers from in. Anything other
// than "y" or "yes" moves on to the next address.
func promptConfirmer(in io.Reader, out io.Writer) transmit.Confirmer {
	scanner := bufio.NewScanner(in)
	return transmit.ConfirmFunc(func(ctx context.Context, address uint32) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		fmt.Fprintf(out, "Sent learn burst to 0x%X. Send again? [y/N] ", address)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return false, err
			}
			return false, nil
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	})
}

func configPathFromEnv() string {
	if path := os.Getenv("RFPANEL_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
