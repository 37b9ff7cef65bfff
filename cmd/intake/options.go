package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fofrafo/dynamic-form/internal/client"
	"github.com/fofrafo/dynamic-form/internal/demo"
	"github.com/fofrafo/dynamic-form/internal/middleware"
	"github.com/fofrafo/dynamic-form/internal/models"
)

// Options is the root command. The struct tags are interpreted by
// github.com/jessevdk/go-flags.
type Options struct {
	Run   *RunCmd   `command:"run"   description:"Fill in the intake form against the backend"`
	Demo  *DemoCmd  `command:"demo"  description:"Fill in the intake form with canned scenarios, no backend needed"`
	Chat  *ChatCmd  `command:"chat"  description:"Ask the vet assistant a follow-up question"`
	Token *TokenCmd `command:"token" description:"Sign a bearer token for the API"`
}

// Init wires every sub-command to the terminal before parsing.
func (o *Options) Init(c *console) {
	o.Run = &RunCmd{console: c}
	o.Demo = &DemoCmd{console: c}
	o.Chat = &ChatCmd{console: c}
	o.Token = &TokenCmd{console: c}
}

// PetFlags pre-fills the intake form; blank fields are asked for interactively.
type PetFlags struct {
	Species string `short:"s" long:"species" description:"animal species"`
	Age     string `short:"a" long:"age"     description:"age of the pet"`
	Name    string `short:"n" long:"name"    description:"name of the pet"`
	Reason  string `short:"r" long:"reason"  description:"reason for the visit"`
}

func (p PetFlags) intake() models.IntakeData {
	return models.IntakeData{Species: p.Species, Age: p.Age, Name: p.Name, Reason: p.Reason}
}

type APIFlags struct {
	URL     string `short:"u" long:"url"     env:"INTAKE_API_URL" default:"http://localhost:8080" description:"backend base URL"`
	Token   string `short:"t" long:"token"   env:"INTAKE_API_TOKEN" description:"bearer token"`
	Timeout int    `long:"timeout" description:"timeout in seconds per request (0=none)"`
	Verbose bool   `short:"v" long:"verbose" description:"log every API call to stderr"`
	Stats   bool   `long:"stats" description:"print API call statistics at the end"`
}

func (a APIFlags) timeout() time.Duration {
	return time.Duration(a.Timeout) * time.Second
}

// client builds the API client; the recorder is nil unless --stats is set.
func (a APIFlags) client() (*client.Client, *client.Recorder) {
	var (
		sinks    teeTelemetry
		recorder *client.Recorder
	)
	if a.Verbose {
		sinks = append(sinks, client.LogTelemetry{Logger: log.New(os.Stderr, "", log.LstdFlags)})
	}
	if a.Stats {
		recorder = client.NewRecorder(100)
		sinks = append(sinks, recorder)
	}
	return client.New(a.URL, a.Token, client.WithTelemetry(sinks)), recorder
}

// RunCmd drives the form against the real backend.
type RunCmd struct {
	PetFlags
	APIFlags

	console *console
}

func (c *RunCmd) Execute(_ []string) error {
	api, recorder := c.client()
	err := c.console.runSession(api, c.intake(), c.timeout())
	if recorder != nil {
		c.console.renderStats(recorder.Summary())
	}
	return err
}

// DemoCmd drives the form against the embedded scenarios.
type DemoCmd struct {
	PetFlags

	console *console
}

func (c *DemoCmd) Execute(_ []string) error {
	gen, err := demo.New()
	if err != nil {
		return err
	}
	return c.console.runSession(gen, c.intake(), 0)
}

// ChatCmd asks the vet assistant. Without --message it keeps reading
// questions until an empty line.
type ChatCmd struct {
	PetFlags
	APIFlags
	Message string `short:"m" long:"message" description:"single question to ask"`
	Demo    bool   `long:"demo" description:"answer from the demo assistant"`

	console *console
}

func (c *ChatCmd) Execute(_ []string) error {
	var chat vetChatter
	if c.Demo {
		gen, err := demo.New()
		if err != nil {
			return err
		}
		chat = gen
	} else {
		api, _ := c.client()
		chat = api
	}
	return c.console.runChat(chat, c.intake(), c.Message, c.timeout())
}

// TokenCmd signs a bearer token with the server secret.
type TokenCmd struct {
	Secret  string        `long:"secret"  env:"JWT_SECRET" description:"signing secret of the server"`
	Subject string        `long:"subject" default:"intake-cli" description:"token subject"`
	Role    string        `long:"role"    default:"intake" choice:"intake" choice:"clinic" description:"token role"`
	TTL     time.Duration `long:"ttl"     default:"24h" description:"token lifetime"`

	console *console
}

func (c *TokenCmd) Execute(_ []string) error {
	if c.Secret == "" {
		return fmt.Errorf("signing secret is required (--secret or JWT_SECRET)")
	}
	token, err := middleware.NewJWTAuth(c.Secret).GenerateToken(c.Subject, c.Role, c.TTL)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	c.console.printf("%s\n", token)
	return nil
}

// teeTelemetry forwards every event to each sink.
type teeTelemetry []client.Telemetry

func (t teeTelemetry) RequestSent(ctx context.Context, ev client.RequestEvent) {
	for _, s := range t {
		s.RequestSent(ctx, ev)
	}
}

func (t teeTelemetry) ResponseReceived(ctx context.Context, ev client.ResponseEvent) {
	for _, s := range t {
		s.ResponseReceived(ctx, ev)
	}
}

func (t teeTelemetry) RequestFailed(ctx context.Context, ev client.FailureEvent) {
	for _, s := range t {
		s.RequestFailed(ctx, ev)
	}
}
