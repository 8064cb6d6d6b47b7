package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/etnz/coinfolio"
	"github.com/etnz/coinfolio/docs"
)

// NewFacilitator creates the expert in charge of the conversation with the user.
func NewFacilitator(model string, experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and of solving the user's request.

			Learn about the expert's skills from the Tools and ask them questions.
			They are dedicated to you and keep the context of your previous questions.

			The user holds crypto assets across several exchanges and wallets, and records
			every buy, sell, swap and transfer in a ledger.
			Devise a plan of questions to ask each expert and come up with the best response to the user's request.
			Answer in markdown.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewTrader creates an expert grounded on Google Search, for news and market context.
func NewTrader(model string) *Expert {
	return &Expert{
		Name: "Trader",
		Description: `This is an expert crypto trader, well aware of the tokens, exchanges and protocols,
		and of the latest market news. Ask the Trader whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are an expert in crypto trading, you can search and find anything related to
			tokens, exchanges, protocols and markets. Leverage Google Search to ground your assertions.
			You can get the latest news too, and you know how to relate them to the user's request.
				`}}},
		},
	}
}

// NewAccountant creates the expert reading the user's ledger through the tracker.
func NewAccountant(model string, t *coinfolio.Tracker) *Expert {
	lib := Tools(t)
	return &Expert{
		Name: "Accountant",
		Description: `This is the Accountant. He reads the user's ledger and computes the figures about the user's wealth:
		cost basis, current value, per account balances, performance and transaction history.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are an accountant in charge of the user's crypto ledger.
				Use the Tools to extract relevant information about the user's portfolio. Amounts are in USD.
				You are part of a team of experts, yours is everything about the user's portfolio. They might ask
				you questions in approximate language, figure out what they meant.
			`}}},
		},
		Library: NewLibrary(lib),
	}
}

// Func implements a simple Function.
type Func struct {
	Decl *genai.FunctionDeclaration
	Func func(ctx context.Context, args map[string]any) (any, error)
}

func (f *Func) Declaration() *genai.FunctionDeclaration { return f.Decl }

// Call runs the function and returns its result encoded in JSON, or its error.
func (f *Func) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	v, err := f.Func(ctx, args)
	if err != nil {
		return failure(id, f.Decl.Name, err)
	}
	output, ok := v.(string)
	if !ok {
		data, err := json.Marshal(v)
		if err != nil {
			return failure(id, f.Decl.Name, err)
		}
		output = string(data)
	}
	return &genai.FunctionResponse{ID: id, Name: f.Decl.Name, Response: map[string]any{"output": output}}
}

var accountParam = map[string]*genai.Schema{
	"account": {
		Type:        genai.TypeString,
		Description: "Restrict the answer to this account. All accounts if empty.",
	},
}

// Tools returns the functions answering from the tracker.
func Tools(t *coinfolio.Tracker) []*Func {
	return []*Func{
		{
			Decl: &genai.FunctionDeclaration{
				Name:        "cost_basis",
				Description: "Quantity, total cost and average cost of every symbol, replayed from the whole ledger. Transfers are ignored.",
			},
			Func: func(ctx context.Context, _ map[string]any) (any, error) {
				positions, err := t.CostBasis(ctx)
				if err != nil {
					return nil, err
				}
				return positions.Sorted(), nil
			},
		},
		{
			Decl: &genai.FunctionDeclaration{
				Name:        "holdings",
				Description: "Current market value of the portfolio, with the quantity, live price and value of every held symbol.",
			},
			Func: func(ctx context.Context, _ map[string]any) (any, error) {
				return t.Current(ctx)
			},
		},
		{
			Decl: &genai.FunctionDeclaration{
				Name:        "account_balances",
				Description: "Current market value of every account (exchange or wallet), transfers included.",
				Parameters:  &genai.Schema{Type: genai.TypeObject, Properties: accountParam},
			},
			Func: func(ctx context.Context, args map[string]any) (any, error) {
				account, err := stringArg(args, "account")
				if err != nil {
					return nil, err
				}
				balances, err := t.AccountBalances(ctx)
				if err != nil || account == "" {
					return balances, err
				}
				for _, b := range balances {
					if strings.EqualFold(b.Account, account) {
						return b, nil
					}
				}
				return nil, fmt.Errorf("unknown account %q", account)
			},
		},
		{
			Decl: &genai.FunctionDeclaration{
				Name:        "performance",
				Description: "Latest recorded portfolio value and its change over the last day, week, month and year.",
			},
			Func: func(ctx context.Context, _ map[string]any) (any, error) {
				return t.Performance(ctx)
			},
		},
		{
			Decl: &genai.FunctionDeclaration{
				Name:        "transactions",
				Description: "The ledger transactions in chronological order.",
				Parameters: &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{
					"account": accountParam["account"],
					"up_to": {
						Type:        genai.TypeString,
						Description: "Only transactions on or before this date. " + mustTopic("dates"),
					},
				}},
			},
			Func: func(ctx context.Context, args map[string]any) (any, error) {
				account, err := stringArg(args, "account")
				if err != nil {
					return nil, err
				}
				upTo, err := stringArg(args, "up_to")
				if err != nil {
					return nil, err
				}
				txs, err := t.Transactions(ctx)
				if err != nil {
					return nil, err
				}
				var filters []func(coinfolio.Transaction) bool
				if account != "" {
					filters = append(filters, coinfolio.ByAccount(account))
				}
				if upTo != "" {
					on, err := coinfolio.ParseDate(upTo)
					if err != nil {
						return nil, fmt.Errorf("argument 'up_to' must be a date, got %q", upTo)
					}
					filters = append(filters, coinfolio.UpTo(on))
				}
				out := make([]coinfolio.Transaction, 0, len(txs))
			next:
				for _, tx := range coinfolio.Chronological(txs) {
					for _, keep := range filters {
						if !keep(tx) {
							continue next
						}
					}
					out = append(out, tx)
				}
				return out, nil
			},
		},
		{
			Decl: &genai.FunctionDeclaration{
				Name:        "topic",
				Description: "Documentation about the portfolio tracker. Topic 'readme' lists every topic, '*' returns them all.",
				Parameters: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: map[string]*genai.Schema{"name": {Type: genai.TypeString, Description: "The topic name."}},
					Required:   []string{"name"},
				},
			},
			Func: func(_ context.Context, args map[string]any) (any, error) {
				name, err := stringArg(args, "name")
				if err != nil {
					return nil, err
				}
				return docs.Get(name)
			},
		},
	}
}

// stringArg returns the optional string argument key.
func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q is not a string as expected but %T", key, v)
	}
	return strings.TrimSpace(s), nil
}

func mustTopic(name string) string {
	content, err := docs.Get(name)
	if err != nil {
		panic(err)
	}
	return content
}
