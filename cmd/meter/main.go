// Command meter runs the live ride meter in a terminal, either as the
// driver (the authoritative writer) or as a passenger mirroring the ride.
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
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/richxcame/ridemeter/internal/billing"
	"github.com/richxcame/ridemeter/internal/currency"
	"github.com/richxcame/ridemeter/internal/pricing"
	"github.com/richxcame/ridemeter/internal/rides"
	"github.com/richxcame/ridemeter/internal/routing"
	"github.com/richxcame/ridemeter/internal/tariffs"
	"github.com/richxcame/ridemeter/internal/traffic"
	"github.com/richxcame/ridemeter/pkg/config"
	"github.com/richxcame/ridemeter/pkg/eventbus"
	"github.com/richxcame/ridemeter/pkg/i18n"
	"github.com/richxcame/ridemeter/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	role := flag.String("role", "passenger", "driver or passenger")
	rideFlag := flag.String("ride", "", "ride ID")
	activate := flag.Bool("activate", false, "driver: start billing immediately")
	lang := flag.String("lang", i18n.NormalizeLang(os.Getenv("LANG")), "display language (fr or en)")
	flag.Parse()

	rideID, err := uuid.Parse(*rideFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "a valid -ride ID is required")
		os.Exit(2)
	}

	cfg, err := config.Load("meter")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Server.Environment); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pricer, clock, err := localPricing(cfg)
	if err != nil {
		logger.Fatal("failed to init pricing", zap.Error(err))
	}

	client := rides.NewClient(cfg.Client.APIBaseURL, time.Duration(cfg.Billing.PollTimeoutSeconds)*time.Second)
	opts := billing.OptionsFromConfig(&cfg.Billing)
	render := newRenderer(os.Stdout, *lang)
	opts = append(opts, billing.WithOnUpdate(render.Render))

	var bus *eventbus.Bus
	if cfg.NATS.Enabled {
		bus, err = eventbus.Connect(&cfg.NATS, "meter-"+*role)
		if err != nil {
			logger.Warn("nats unavailable, running without event hints", zap.Error(err))
		} else {
			defer bus.Close()
		}
	}

	switch *role {
	case "driver":
		if bus != nil {
			opts = append(opts, billing.WithPublisher(bus))
		}
		err = runDriver(ctx, billing.NewDriverSession(rideID, client, pricer, client, clock, opts...), *activate, os.Stdin)
	case "passenger":
		if bus != nil {
			hints, unsubscribe, herr := billing.Hints(bus, rideID)
			if herr != nil {
				logger.Warn("failed to subscribe to ride events", zap.Error(herr))
			} else {
				defer unsubscribe()
				opts = append(opts, billing.WithHints(hints))
			}
		}
		err = billing.NewPassengerSession(rideID, client, pricer, opts...).Run(ctx)
	default:
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *role)
		os.Exit(2)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("meter stopped", zap.String("ride_id", rideID.String()), zap.Error(err))
		os.Exit(1)
	}
}

// localPricing builds a pricing service for on-screen surcharge figures.
// Final prices always come from the server.
func localPricing(cfg *config.Config) (*pricing.Service, *traffic.Model, error) {
	loc, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		return nil, nil, err
	}
	model, err := traffic.NewModel(traffic.DefaultTable(), loc)
	if err != nil {
		return nil, nil, err
	}
	rates := currency.NewRefresher(currency.StaticRateSource(cfg.Pricing.ExchangeRate),
		cfg.Pricing.BaseCurrency, cfg.Pricing.DisplayCurrency, cfg.Pricing.ExchangeRate, 0)
	svc := pricing.NewService(pricing.NewCalculator(tariffs.DefaultTable()), routing.NewEstimator(nil, model, nil),
		model, rates, nil, nil, nil, &cfg.Pricing)
	return svc, model, nil
}

// runDriver starts the ride and reads driver commands from in until the ride
// is settled: "a" activates billing, "c" completes the ride.
func runDriver(ctx context.Context, session *billing.DriverSession, activate bool, in io.Reader) error {
	if err := session.StartRide(ctx); err != nil {
		return err
	}
	if activate {
		if _, err := session.ActivateBilling(ctx); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
			case "a", "activate":
				if _, err := session.ActivateBilling(ctx); err != nil {
					logger.Warn("activation failed", zap.Error(err))
				}
			case "c", "complete":
				if _, err := session.Complete(ctx); err != nil {
					logger.Error("completion failed", zap.Error(err))
				}
			case "q", "quit":
				cancel()
				return
			}
		}
	}()

	return session.Run(ctx)
}
