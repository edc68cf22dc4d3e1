package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/adamspd/FlashMind/client"
	"github.com/adamspd/FlashMind/models"
	"github.com/adamspd/FlashMind/study"
)

var (
	errUnknownCommand = errors.New("unknown command")
	errLoginRequired  = errors.New("not logged in, run 'flashmind login' first")
	errSessionExpired = errors.New("session expired, please log in again")
	errInputClosed    = errors.New("input closed")
)

type app struct {
	api    *client.Client
	tokens tokenFile
	in     *bufio.Reader
	out    io.Writer
}

func newApp(cfg *cliConfig, stdin io.Reader, stdout io.Writer) (*app, error) {
	tokens := tokenFile{path: cfg.TokenFile}
	token, err := tokens.Load()
	if err != nil {
		return nil, err
	}

	return &app{
		api: client.New(cfg.Server,
			client.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			client.WithToken(token)),
		tokens: tokens,
		in:     bufio.NewReader(stdin),
		out:    stdout,
	}, nil
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "decks":
		return a.decks(ctx)
	case "create":
		return a.create(ctx, args)
	case "study":
		return a.study(ctx, args)
	case "profile":
		return a.profile(ctx)
	case "delete":
		return a.delete(ctx, args)
	case "import":
		return a.importFile(ctx, args)
	default:
		return fmt.Errorf("%w %q", errUnknownCommand, cmd)
	}
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", errInputClosed
	}
	return strings.TrimSpace(line), nil
}

func (a *app) requireLogin() error {
	if a.api.Token() == "" {
		return errLoginRequired
	}
	return nil
}

// checkAuth drops the stored token when the server rejects it.
func (a *app) checkAuth(err error) error {
	if client.IsUnauthorized(err) {
		a.api.SetToken("")
		if rmErr := a.tokens.Remove(); rmErr != nil {
			return rmErr
		}
		return errSessionExpired
	}
	return err
}

func (a *app) credentials(name string, args []string) (string, string, error) {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	email := flags.String("email", "", "account email")
	password := flags.String("password", "", "account password")
	if err := flags.Parse(args); err != nil {
		return "", "", err
	}

	var err error
	if *email == "" {
		if *email, err = a.prompt("Email: "); err != nil {
			return "", "", err
		}
	}
	if *password == "" {
		if *password, err = a.prompt("Password: "); err != nil {
			return "", "", err
		}
	}
	return *email, *password, nil
}

func (a *app) register(ctx context.Context, args []string) error {
	email, password, err := a.credentials("register", args)
	if err != nil {
		return err
	}

	user, err := a.api.Register(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered %s. Now run 'flashmind login'.\n", user.Email)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	email, password, err := a.credentials("login", args)
	if err != nil {
		return err
	}

	token, err := a.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := a.tokens.Save(token.AccessToken); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", email)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if a.api.Token() != "" {
		if err := a.api.Logout(ctx); err != nil && !client.IsUnauthorized(err) {
			return err
		}
	}
	if err := a.tokens.Remove(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *app) fetchDecks(ctx context.Context) ([]models.Deck, error) {
	if err := a.requireLogin(); err != nil {
		return nil, err
	}
	decks, err := a.api.Decks(ctx)
	if err != nil {
		return nil, a.checkAuth(err)
	}
	return decks, nil
}

func (a *app) decks(ctx context.Context) error {
	decks, err := a.fetchDecks(ctx)
	if err != nil {
		return err
	}
	if len(decks) == 0 {
		fmt.Fprintln(a.out, "No decks yet. Create one with 'flashmind create'.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tDIFFICULTY\tCARDS\tCORRECT\tWRONG\tCREATED")
	for _, d := range decks {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%s\n", d.ID, d.Title, d.Difficulty, d.CardCount,
			d.CorrectAnswers, d.WrongAnswers, d.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func (a *app) create(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("create", pflag.ContinueOnError)
	title := flags.String("title", "", "deck title")
	difficulty := flags.String("difficulty", models.DifficultyEasy, "easy, medium or hard")
	path := flags.String("file", "", "read the text from this file instead of stdin")
	async := flags.Bool("async", false, "generate in the background and wait for the job")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if !models.ValidDifficulty(*difficulty) {
		return fmt.Errorf("invalid difficulty %q, use easy, medium or hard", *difficulty)
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	var data []byte
	var err error
	if *path != "" {
		data, err = os.ReadFile(*path)
	} else {
		data, err = io.ReadAll(a.in)
	}
	if err != nil {
		return fmt.Errorf("read text: %w", err)
	}

	params := client.GenerateParams{Text: string(data), Title: *title, Difficulty: *difficulty}
	fmt.Fprintln(a.out, "Generating cards, this can take a minute...")

	if *async {
		return a.createAsync(ctx, params)
	}

	resp, err := a.api.Generate(ctx, params)
	if err != nil {
		return a.checkAuth(err)
	}
	fmt.Fprintf(a.out, "Created deck %d with %d cards\n", resp.DeckID, len(resp.Cards))
	return nil
}

func (a *app) createAsync(ctx context.Context, params client.GenerateParams) error {
	jobID, err := a.api.GenerateAsync(ctx, params)
	if err != nil {
		return a.checkAuth(err)
	}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		status, err := a.api.Job(ctx, jobID)
		if err != nil {
			return a.checkAuth(err)
		}
		switch status.State {
		case "completed":
			fmt.Fprintf(a.out, "Created deck %d\n", status.DeckID)
			return nil
		case "archived":
			if status.Error != "" {
				return errors.New(status.Error)
			}
			return errors.New("generation failed")
		}
	}
}

func parseDeckID(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errors.New("expected exactly one deck id")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid deck id %q", args[0])
	}
	return id, nil
}

func (a *app) study(ctx context.Context, args []string) error {
	deckID, err := parseDeckID(args)
	if err != nil {
		return err
	}

	decks, err := a.fetchDecks(ctx)
	if err != nil {
		return err
	}
	var deck *models.Deck
	for i := range decks {
		if decks[i].ID == deckID {
			deck = &decks[i]
			break
		}
	}
	if deck == nil {
		return fmt.Errorf("deck %d not found", deckID)
	}

	data, err := a.api.LoadStudy(ctx, deckID)
	if err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("deck %d not found", deckID)
		}
		return a.checkAuth(err)
	}

	session := study.NewSession(*deck, data.Cards, data.Attempts)
	fmt.Fprintf(a.out, "%s (%s)\n", deck.Title, deck.Difficulty)

	for !session.Finished() {
		if err := a.playCard(ctx, session); err != nil {
			return err
		}
		if session.Finished() {
			break
		}
		if _, err := a.prompt("Press Enter for the next card "); err != nil {
			return err
		}
		session.Next()
	}

	return a.finish(ctx, session)
}

func (a *app) playCard(ctx context.Context, s *study.Session) error {
	card := s.Current()
	cur, total := s.Progress()
	fmt.Fprintf(a.out, "\nQuestion %d / %d\n%s\n", cur, total, card.Question)

	if !card.IsQuiz() {
		return a.playFlashcard(ctx, s)
	}

	for i, opt := range card.Options {
		fmt.Fprintf(a.out, "  %d) %s\n", i+1, opt)
	}
	for !s.Answered {
		answer, err := a.prompt("Your answer: ")
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(answer)
		if err != nil || n < 1 || n > len(card.Options) {
			fmt.Fprintf(a.out, "Pick a number between 1 and %d\n", len(card.Options))
			continue
		}
		s.Select(card.Options[n-1])
	}

	for _, opt := range card.Options {
		fmt.Fprintf(a.out, "  %s %s\n", optionMark(s.OptionState(opt)), opt)
	}
	return nil
}

func optionMark(state study.OptionState) string {
	switch state {
	case study.OptionCorrect:
		return "[+]"
	case study.OptionWrongSelected:
		return "[x]"
	default:
		return "   "
	}
}

func (a *app) playFlashcard(ctx context.Context, s *study.Session) error {
	card := s.Current()
	if _, err := a.prompt("Press Enter to reveal the answer "); err != nil {
		return err
	}
	s.Reveal()
	fmt.Fprintf(a.out, "Answer: %s\n", card.Answer)

	var known bool
	for !s.Answered {
		reply, err := a.prompt("Did you know it? [y/n] ")
		if err != nil {
			return err
		}
		switch strings.ToLower(reply) {
		case "y", "yes":
			known = s.Grade(true)
		case "n", "no":
			s.Grade(false)
		}
	}

	review, err := a.api.Review(ctx, card.ID, known)
	if err != nil {
		return a.checkAuth(err)
	}
	fmt.Fprintf(a.out, "Next review: %s\n", review.NextReview.Local().Format("2006-01-02"))
	return nil
}

func (a *app) finish(ctx context.Context, s *study.Session) error {
	correct, wrong := s.Result()
	fmt.Fprintf(a.out, "\nDone! Correct: %d  Wrong: %d\n", correct, wrong)

	if len(s.Cards) > 0 {
		if _, err := a.api.SaveAttempt(ctx, s.Deck.ID, correct, wrong); err != nil {
			return a.checkAuth(err)
		}
	}

	if len(s.Attempts) > 0 {
		fmt.Fprintln(a.out, "Previous attempts:")
		for _, at := range s.Attempts {
			fmt.Fprintf(a.out, "  %s  %d correct, %d wrong\n",
				at.Timestamp.Local().Format("2006-01-02 15:04"), at.Correct, at.Wrong)
		}
	}
	return nil
}

func (a *app) profile(ctx context.Context) error {
	decks, err := a.fetchDecks(ctx)
	if err != nil {
		return err
	}

	summary := study.Profile(decks)
	fmt.Fprintf(a.out, "Decks:   %d\n", summary.Decks)
	fmt.Fprintf(a.out, "Correct: %d\n", summary.Correct)
	fmt.Fprintf(a.out, "Wrong:   %d\n", summary.Wrong)

	stats, err := a.api.Stats(ctx)
	if err != nil {
		return a.checkAuth(err)
	}
	fmt.Fprintf(a.out, "Cards:   %d (%d due for review)\n", stats.TotalCards, stats.DueCards)
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	deckID, err := parseDeckID(args)
	if err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	if err := a.api.DeleteDeck(ctx, deckID); err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("deck %d not found", deckID)
		}
		return a.checkAuth(err)
	}
	fmt.Fprintf(a.out, "Deleted deck %d\n", deckID)
	return nil
}

func (a *app) importFile(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("import", pflag.ContinueOnError)
	title := flags.String("title", "", "deck title")
	difficulty := flags.String("difficulty", models.DifficultyEasy, "easy, medium or hard")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("expected exactly one file")
	}
	if !models.ValidDifficulty(*difficulty) {
		return fmt.Errorf("invalid difficulty %q, use easy, medium or hard", *difficulty)
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	data, err := os.ReadFile(flags.Arg(0))
	if err != nil {
		return fmt.Errorf("read %s: %w", flags.Arg(0), err)
	}

	result, err := a.api.Import(ctx, *title, *difficulty, string(data))
	if err != nil {
		return a.checkAuth(err)
	}

	fmt.Fprintf(a.out, "Created deck %d: %d imported, %d skipped\n",
		result.DeckID, result.ImportedCards, result.SkippedCards)
	for _, msg := range result.Errors {
		fmt.Fprintf(a.out, "  %s\n", msg)
	}
	return nil
}
