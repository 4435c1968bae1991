// landerctl is a CLI tool for exercising landing-page checkout flows
// against a running checkout proxy. Each command performs a single
// operation, making it composable for scripts.
//
// Commands:
//
//	landerctl plan -config page.json [-qty N] [-proxy URL]
//	landerctl buy -config page.json [-qty N] [-proxy URL]
//	landerctl decode-meta <token>
//
// Examples:
//
//	landerctl plan -config testdata/shopyy-page.json -qty 2
//	URL=$(landerctl buy -config page.json -proxy http://localhost:8080/checkout -q)
//	landerctl decode-meta eyJ2YXJpYW50IjoiYmxhY2sifQ
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"checkout-proxy/internal/classify"
	"checkout-proxy/internal/codec"
	"checkout-proxy/internal/dispatch"
	"checkout-proxy/internal/model"
)

// ANSI color codes
var (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		colorReset, colorGreen, colorCyan, colorGray = "", "", "", ""
	}
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "plan":
		runPlan(args)
	case "buy":
		runBuy(args)
	case "decode-meta":
		runDecodeMeta(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `landerctl - landing page checkout flow test tool

Usage:
  landerctl <command> [options]

Commands:
  plan         Classify a page's checkout config and print the strategy
  buy          Execute a buy: navigate or create an order via the proxy
  decode-meta  Decode a metadata token back to its payload

Examples:
  landerctl plan -config page.json -qty 2
  landerctl buy -config page.json -proxy http://localhost:8080/checkout
  landerctl decode-meta eyJ2YXJpYW50IjoiYmxhY2sifQ
`)
}

// pageConfig mirrors the runtime config a landing page ships with: the
// product, its checkout variant, and the pre-resolved proxy endpoint.
type pageConfig struct {
	Product  model.Product   `json:"product"`
	Checkout json.RawMessage `json:"checkout"`
	API      struct {
		CheckoutEndpoint string `json:"checkoutEndpoint"`
	} `json:"api"`
}

func loadPage(path string) (*pageConfig, model.CheckoutConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading page config: %w", err)
	}

	var page pageConfig
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, nil, fmt.Errorf("parsing page config: %w", err)
	}

	checkout, err := model.ParseCheckoutConfig(page.Checkout)
	if err != nil {
		return nil, nil, err
	}

	return &page, checkout, nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func runPlan(args []string) {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	configPath := fs.String("config", "", "page config JSON (required)")
	qty := fs.String("qty", "1", "quantity field value")
	proxy := fs.String("proxy", "", "proxy endpoint (overrides page config)")
	fs.Parse(args)

	if *configPath == "" {
		fatal(fmt.Errorf("-config is required"))
	}

	page, checkout, err := loadPage(*configPath)
	if err != nil {
		fatal(err)
	}

	endpoint := page.API.CheckoutEndpoint
	if *proxy != "" {
		endpoint = *proxy
	}

	res, err := classify.Classify(checkout, page.Product, *qty, endpoint)
	if err != nil {
		fatal(err)
	}

	fmt.Printf("%squantity:%s %d\n", colorGray, colorReset, res.Intent.Quantity)
	switch plan := res.Plan.(type) {
	case classify.Navigate:
		fmt.Printf("%sstrategy:%s navigate\n", colorCyan, colorReset)
		fmt.Printf("%surl:%s %s\n", colorGreen, colorReset, plan.URL)
	case classify.ProxyCall:
		fmt.Printf("%sstrategy:%s proxy call\n", colorCyan, colorReset)
		out, _ := json.MarshalIndent(plan.Request, "", "  ")
		fmt.Println(string(out))
	}
}

// printNavigator stands in for the browser: it prints the URL the page
// would navigate to.
type printNavigator struct {
	quiet bool
}

func (n *printNavigator) Navigate(url string) error {
	if n.quiet {
		fmt.Println(url)
		return nil
	}
	fmt.Printf("%sopen:%s %s\n", colorGreen, colorReset, url)
	return nil
}

func runBuy(args []string) {
	fs := flag.NewFlagSet("buy", flag.ExitOnError)
	configPath := fs.String("config", "", "page config JSON (required)")
	qty := fs.String("qty", "1", "quantity field value")
	proxy := fs.String("proxy", "", "proxy endpoint (overrides page config)")
	quiet := fs.Bool("q", false, "print only the resulting URL")
	fs.Parse(args)

	if *configPath == "" {
		fatal(fmt.Errorf("-config is required"))
	}

	page, checkout, err := loadPage(*configPath)
	if err != nil {
		fatal(err)
	}

	endpoint := page.API.CheckoutEndpoint
	if *proxy != "" {
		endpoint = *proxy
	}

	logLevel := slog.LevelWarn
	if !*quiet {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	d := dispatch.New(dispatch.Config{
		ProxyEndpoint: endpoint,
		Navigator:     &printNavigator{quiet: *quiet},
		Logger:        logger,
	})

	outcome, err := d.Submit(context.Background(), checkout, page.Product, *qty)
	if err != nil {
		// One generic line for the shopper, the detail on stderr.
		fmt.Fprintf(os.Stderr, "%s\n", dispatch.UserMessage(err))
		fmt.Fprintf(os.Stderr, "%sdetail:%s %v\n", colorGray, colorReset, err)
		os.Exit(1)
	}

	if !*quiet {
		fmt.Printf("%squantity:%s %d\n", colorGray, colorReset, outcome.Quantity)
	}
}

func runDecodeMeta(args []string) {
	if len(args) != 1 {
		fatal(fmt.Errorf("usage: landerctl decode-meta <token>"))
	}

	data, err := codec.DecodeMetadata(args[0])
	if err != nil {
		fatal(err)
	}
	if data == nil {
		fmt.Println("(empty)")
		return
	}
	os.Stdout.Write(append(data, '\n'))
}
