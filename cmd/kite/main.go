// Command kite is a small operational CLI over the client library:
// complete a login, dump instruments, pull candles, check quotes and
// margins from the shell.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/SPRAGE/kiteconnect-go/internal/credentials"
	"github.com/SPRAGE/kiteconnect-go/internal/metrics"
	"github.com/SPRAGE/kiteconnect-go/kite"
)

const usage = `usage: kite <command> [args]

commands:
  login                                  print the login URL
  session <request_token>                exchange a request token and save the access token
  profile                                show the logged-in user
  margins                                show funds across segments
  instruments [exchange]                 dump instruments as JSON lines
  quote <EXCHANGE:SYMBOL>...             full quotes
  ltp <EXCHANGE:SYMBOL>...               last traded prices
  historical <token> <interval> <from> <to>   candles, e.g.
      historical 256265 5minute "2023-01-01 09:15:00" "2023-06-30 15:30:00"

environment:
  KITE_API_KEY, KITE_API_SECRET, KITE_ACCESS_TOKEN
  KITE_CREDENTIALS_FILE   token store (default ~/.kite/credentials.json)
  KITE_BASE_URL           API root override
  METRICS_PORT            expose Prometheus metrics while running
`

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if getEnv("KITE_DEBUG", "") == "" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	store := credentials.NewStore("")
	creds, err := store.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load credentials")
	}

	client := kite.New(kite.ClientConfig{
		APIKey:      creds.APIKey,
		AccessToken: creds.AccessToken,
		BaseURL:     getEnv("KITE_BASE_URL", ""),
		Logger:      &log.Logger,
	})
	client.OnSessionExpired(func() {
		log.Warn().Msg("Access token expired, run `kite login` to start a fresh session")
	})

	if port := getEnv("METRICS_PORT", ""); port != "" {
		metricsServer := metrics.NewServer(":" + port)
		go func() {
			if err := metricsServer.Start(); err != nil {
				log.Error().Err(err).Msg("Metrics server error")
			}
		}()
		defer metricsServer.Stop()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, client, store, creds, os.Args[1], os.Args[2:]); err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("Command failed")
	}
}

func run(ctx context.Context, client *kite.Client, store *credentials.Store, creds *credentials.Credentials, command string, args []string) error {
	switch command {
	case "login":
		fmt.Println(client.LoginURL())
		fmt.Fprintln(os.Stderr, "open the URL, log in, then run: kite session <request_token>")
		return nil

	case "session":
		if len(args) != 1 {
			return fmt.Errorf("usage: kite session <request_token>")
		}
		session, err := client.GenerateSession(ctx, args[0], creds.APISecret)
		if err != nil {
			return err
		}
		log.Info().Str("user", session.UserID).Msg("Session established")
		return store.SaveAccessToken(creds, session.AccessToken)

	case "profile":
		profile, err := client.GetUserProfile(ctx)
		if err != nil {
			return err
		}
		return printJSON(profile)

	case "margins":
		margins, err := client.GetUserMargins(ctx)
		if err != nil {
			return err
		}
		return printJSON(margins)

	case "instruments":
		return dumpInstruments(ctx, client, args)

	case "quote":
		quotes, err := client.GetQuote(ctx, args...)
		if err != nil {
			return err
		}
		return printJSON(quotes)

	case "ltp":
		quotes, err := client.GetLTP(ctx, args...)
		if err != nil {
			return err
		}
		return printJSON(quotes)

	case "historical":
		return dumpHistorical(ctx, client, args)

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func dumpInstruments(ctx context.Context, client *kite.Client, args []string) error {
	var rows []kite.Instrument
	var err error
	if len(args) > 0 {
		rows, err = client.InstrumentsByExchange(ctx, args[0])
	} else {
		rows, err = client.Instruments(ctx)
	}
	if err != nil {
		return err
	}

	log.Info().Int("instruments", len(rows)).Msg("Instruments fetched")
	enc := json.NewEncoder(os.Stdout)
	for i := range rows {
		if err := enc.Encode(&rows[i]); err != nil {
			return err
		}
	}
	return nil
}

func dumpHistorical(ctx context.Context, client *kite.Client, args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: kite historical <token> <interval> <from> <to>")
	}

	token, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("instrument token %q: %w", args[0], err)
	}
	interval, err := kite.ParseInterval(args[1])
	if err != nil {
		return err
	}
	from, err := parseCLITime(args[2])
	if err != nil {
		return err
	}
	to, err := parseCLITime(args[3])
	if err != nil {
		return err
	}

	start := time.Now()
	data, err := client.GetHistoricalData(ctx, kite.HistoricalDataRequest{
		InstrumentToken: uint32(token),
		From:            from,
		To:              to,
		Interval:        interval,
	})
	if err != nil {
		return err
	}

	log.Info().
		Int("candles", data.Count).
		Dur("elapsed", time.Since(start)).
		Msg("Historical data fetched")
	return printJSON(data)
}

func parseCLITime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q, want YYYY-MM-DD [HH:MM:SS]", s)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
