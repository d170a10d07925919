package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	"quickorder/internal/api"
	"quickorder/internal/cache"
	"quickorder/internal/config"
	"quickorder/internal/connectivity"
	"quickorder/internal/fetch"
	"quickorder/internal/history"
	"quickorder/internal/loader"
	"quickorder/internal/logging"
	"quickorder/internal/message"
	"quickorder/internal/store"
)

const usage = `usage: quickorder [flags] <command> [args]

commands:
  vendors                               list vendors
  add-vendor <name> <phone>             create a vendor
  remove-vendor <vendorId>              delete a vendor and its items
  items <vendorId>                      list the vendor's items and shared items
  preview <vendorId> <itemId[:qty]>...  print the order message
  send <vendorId> <itemId[:qty]>...     open the order link and record it
  history                               list sent orders
  delete-history <entryId>              remove one history entry
  clear-history                         remove all history entries
  rename <name>                         set the restaurant name
  watch                                 keep data fresh while the backend comes and goes
`

func main() {
	web := flag.Bool("web", false, "always use the web messaging link")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, closeCache, err := cache.Open(ctx, cache.Options{
		Backend:   cfg.CacheBackend,
		Path:      cfg.CachePath,
		RedisURL:  cfg.RedisURL,
		Namespace: cfg.CacheNamespace,
	})
	if err != nil {
		log.WithError(err).Fatal("cannot open cache")
	}
	defer func() {
		if err := closeCache(); err != nil {
			log.WithError(err).Warn("cache close failed")
		}
	}()

	client := api.NewClient(api.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.WriteTimeout})
	l := loader.New(client, fetch.NewFetcher(c, logging.Component(log, "fetch")), cfg.FetchTimeout)
	s := store.New(store.Deps{
		Loader:  l,
		Vendors: client,
		Cache:   c,
		Log:     logging.Component(log, "store"),
	})
	rec := history.NewRecorder(history.Config{
		Store:  s,
		Opener: printOpener{out: os.Stdout, webOnly: *web},
		Orders: client,
		Log:    logging.Component(log, "history"),
	})

	if err := s.Start(ctx); err != nil {
		log.WithError(err).Fatal("cannot start store")
	}

	app := &cli{store: s, recorder: rec, client: client, cfg: cfg, log: log, out: os.Stdout}
	if err := app.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type cli struct {
	store    *store.Store
	recorder *history.Recorder
	client   *api.Client
	cfg      *config.Config
	log      *logrus.Logger
	out      io.Writer
}

var errUsage = errors.New("wrong number of arguments, run with -h for usage")

func (a *cli) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "vendors":
		return a.vendors()
	case "add-vendor":
		if len(args) != 2 {
			return errUsage
		}
		v, err := a.store.AddVendor(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "added %s (%s)\n", v.Name, v.ID)
		return nil
	case "remove-vendor":
		if len(args) != 1 {
			return errUsage
		}
		return a.store.RemoveVendor(ctx, args[0])
	case "items":
		if len(args) != 1 {
			return errUsage
		}
		return a.items(ctx, args[0])
	case "preview", "send":
		if len(args) < 2 {
			return errUsage
		}
		if err := a.selectItems(ctx, args[0], args[1:]); err != nil {
			return err
		}
		if cmd == "preview" {
			_, msg, err := a.recorder.Preview(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, msg)
			return nil
		}
		entry, err := a.recorder.Send(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "recorded order %s for %s\n", entry.ID, entry.VendorName)
		return nil
	case "history":
		return a.history()
	case "delete-history":
		if len(args) != 1 {
			return errUsage
		}
		return a.store.DeleteHistoryEntry(ctx, args[0])
	case "clear-history":
		return a.store.ClearHistory(ctx)
	case "rename":
		if len(args) != 1 {
			return errUsage
		}
		return a.store.UpdateRestaurantName(ctx, args[0])
	case "watch":
		return a.watch(ctx)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *cli) vendors() error {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPHONE")
	for _, v := range a.store.Vendors() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", v.ID, v.Name, v.Phone)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if src := a.store.Freshness().Vendors; src != fetch.SourceLive {
		fmt.Fprintf(a.out, "(offline, showing %s data)\n", src)
	}
	return nil
}

func (a *cli) items(ctx context.Context, vendorID string) error {
	src := a.store.LoadVendorItems(ctx, vendorID)

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tUNIT\tCATEGORY\tPRICE")
	for _, it := range a.store.Items() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			it.ID, it.Name, it.Unit.Label(), it.Category, message.FormatAmount(message.UnitPrice(it)))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if src != fetch.SourceLive {
		fmt.Fprintf(a.out, "(offline, showing %s data)\n", src)
	}
	return nil
}

// selectItems loads the vendor's catalog and selects each "id" or "id:qty".
func (a *cli) selectItems(ctx context.Context, vendorID string, args []string) error {
	a.store.LoadVendorItems(ctx, vendorID)
	for _, arg := range args {
		id, qty, err := parseItemArg(arg)
		if err != nil {
			return err
		}
		if err := a.store.SetSelected(id, true); err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
		if qty > 0 {
			if err := a.store.SetQuantity(id, qty); err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
		}
	}
	return nil
}

func parseItemArg(arg string) (string, float64, error) {
	id, q, found := strings.Cut(arg, ":")
	if !found {
		return id, 0, nil
	}
	qty, err := strconv.ParseFloat(q, 64)
	if err != nil || math.IsNaN(qty) || math.IsInf(qty, 0) || qty <= 0 {
		return "", 0, fmt.Errorf("bad quantity in %q", arg)
	}
	return id, qty, nil
}

func (a *cli) history() error {
	entries := a.store.History()
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "no orders yet")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tVENDOR\tITEMS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", e.ID, e.Date, e.VendorName, len(e.Items))
	}
	return tw.Flush()
}

// watch refreshes reference data whenever the backend comes back.
func (a *cli) watch(ctx context.Context) error {
	mon := connectivity.NewMonitor(a.client, a.cfg.HealthInterval, logging.Component(a.log, "connectivity"))
	mon.OnChange(func(online bool) {
		if !online {
			fmt.Fprintln(a.out, "backend unreachable, serving cached data")
			return
		}
		if err := a.store.Refresh(ctx); err != nil {
			a.log.WithError(err).Warn("refresh failed")
			return
		}
		fmt.Fprintf(a.out, "back online, %d vendors\n", len(a.store.Vendors()))
	})
	mon.Start(ctx)
	<-ctx.Done()
	mon.Stop()
	return nil
}

// printOpener "opens" a link by printing it. With webOnly the app link is
// reported as unavailable so the web link is used.
type printOpener struct {
	out     io.Writer
	webOnly bool
}

func (p printOpener) CanOpen(_ context.Context, uri string) bool {
	return !p.webOnly || !strings.HasPrefix(uri, "https://wa.me/")
}

func (p printOpener) Open(_ context.Context, uri string) error {
	_, err := fmt.Fprintln(p.out, uri)
	return err
}
