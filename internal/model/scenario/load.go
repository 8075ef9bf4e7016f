package scenario

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// MalformedScenarioError reports a scenario source row that violates
// the expected schema or the outcome-cell grammar.
type MalformedScenarioError struct {
	Row    int // 1-based data row, excluding the header
	Column string
	Reason string
}

func (e *MalformedScenarioError) Error() string {
	return fmt.Sprintf("malformed scenario row %d, column %q: %s", e.Row, e.Column, e.Reason)
}

var requiredColumns = []string{
	"round",
	"scenario_id",
	"scenario_title",
	"options",
	"human_private_info",
	"ai_private_info",
	"option_A_outcome",
	"option_B_outcome",
	"option_C_outcome",
	"option_D_outcome",
}

var outcomeKeys = []string{"safety", "equity", "cost", "political", "total"}

// LoadFile loads the scenario catalog from a CSV file on disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario source: %w", err)
	}
	defer f.Close()

	catalog, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return catalog, nil
}

// Load parses the tabular scenario source into a round-ordered catalog.
// Every row must carry all ten required columns and a parseable outcome
// cell for each of the four options; any violation fails the whole load.
func Load(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read scenario header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("scenario source missing column %q", col)
		}
	}

	var items []Scenario
	row := 0
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read scenario row: %w", err)
		}
		row++

		cell := func(col string) (string, error) {
			i := index[col]
			if i >= len(fields) {
				return "", &MalformedScenarioError{Row: row, Column: col, Reason: "cell missing"}
			}
			return fields[i], nil
		}

		rawRound, err := cell("round")
		if err != nil {
			return nil, err
		}
		roundNum, convErr := strconv.Atoi(strings.TrimSpace(rawRound))
		if convErr != nil {
			return nil, &MalformedScenarioError{Row: row, Column: "round", Reason: fmt.Sprintf("not an integer: %q", rawRound)}
		}

		sc := Scenario{
			RoundNum: roundNum,
			Outcomes: make(map[Option]Outcome, len(Options())),
		}
		if sc.ID, err = cell("scenario_id"); err != nil {
			return nil, err
		}
		if sc.Title, err = cell("scenario_title"); err != nil {
			return nil, err
		}
		if sc.OptionsText, err = cell("options"); err != nil {
			return nil, err
		}
		if sc.HumanPrivateInfo, err = cell("human_private_info"); err != nil {
			return nil, err
		}
		if sc.AIPrivateInfo, err = cell("ai_private_info"); err != nil {
			return nil, err
		}

		for _, opt := range Options() {
			col := fmt.Sprintf("option_%s_outcome", opt)
			raw, err := cell(col)
			if err != nil {
				return nil, err
			}
			outcome, parseErr := parseOutcomeCell(raw)
			if parseErr != nil {
				return nil, &MalformedScenarioError{Row: row, Column: col, Reason: parseErr.Error()}
			}
			sc.Outcomes[opt] = outcome
		}

		items = append(items, sc)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].RoundNum < items[j].RoundNum })
	for i := 1; i < len(items); i++ {
		if items[i].RoundNum == items[i-1].RoundNum {
			return nil, &MalformedScenarioError{Row: 0, Column: "round", Reason: fmt.Sprintf("duplicate round number %d", items[i].RoundNum)}
		}
	}

	return &Catalog{items: items}, nil
}

// parseOutcomeCell parses cells like
// "A: safety=2,equity=1,cost=2,political=1,total=6". The label prefix
// is optional; the key set is fixed and every key must appear exactly
// once with an integer value.
func parseOutcomeCell(cell string) (Outcome, error) {
	body := cell
	if i := strings.Index(body, ":"); i >= 0 {
		body = body[i+1:]
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return Outcome{}, fmt.Errorf("empty outcome cell")
	}

	values := make(map[string]int, len(outcomeKeys))
	for _, part := range strings.Split(body, ",") {
		key, raw, found := strings.Cut(part, "=")
		if !found {
			return Outcome{}, fmt.Errorf("expected key=value, got %q", strings.TrimSpace(part))
		}
		key = strings.TrimSpace(key)
		if !validOutcomeKey(key) {
			return Outcome{}, fmt.Errorf("unknown key %q", key)
		}
		if _, dup := values[key]; dup {
			return Outcome{}, fmt.Errorf("duplicate key %q", key)
		}
		val, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return Outcome{}, fmt.Errorf("non-integer value for %q: %q", key, strings.TrimSpace(raw))
		}
		values[key] = val
	}

	for _, key := range outcomeKeys {
		if _, ok := values[key]; !ok {
			return Outcome{}, fmt.Errorf("missing key %q", key)
		}
	}

	return Outcome{
		Safety:    values["safety"],
		Equity:    values["equity"],
		Cost:      values["cost"],
		Political: values["political"],
		Total:     values["total"],
	}, nil
}

func validOutcomeKey(key string) bool {
	for _, k := range outcomeKeys {
		if k == key {
			return true
		}
	}
	return false
}
