// Package agent is the threat model assistant: an ADK agent whose tools read a check run
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethanolivertroy/tmcheck/internal/llm"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/adk/tool"
	"google.golang.org/genai"
)

// AppName identifies the assistant to the ADK runner and A2A clients
const AppName = "tmcheck"

// SystemInstruction for the threat model assistant
const SystemInstruction = `You are a threat model reviewer for a machine learning platform. You answer questions about
the team's threat catalog (STRIDE-classified threats) and security control catalog using your tools.

Be action-oriented:
- Call a tool before answering; never guess IDs, scores or statuses
- When a user names a threat, control or regulation, look it up immediately
- If a lookup finds nothing, say so briefly and suggest the closest match

Your catalog tools:
- search_threats / get_threat: threats with canonical risk (likelihood x impact matrix) and exposure
- search_controls / get_control: controls with test results and roadmap priority
- list_gaps: dangling references, uncovered threats, risk matrix mismatches
- export_reports: write the report artifacts

Your compliance tools:
- get_compliance: status of every regulation
- get_regulation: why one regulation is or is not compliant

Your analytics tools:
- get_posture: overall score, posture, validation status, CI outcome
- get_risk_statistics: counts by risk band and STRIDE category
- get_exposure: annual financial exposure per threat
- get_roadmap: controls still to implement

When presenting results:
- Lead with the data, keep explanations brief
- The canonical risk always wins over a declared risk_score
- A WEAK posture or FAILED validation fails CI; say so when relevant
- Use markdown for clarity`

// ThreatModelAgent wraps the ADK agent with the threat model tools
type ThreatModelAgent struct {
	agent          agent.Agent
	runner         *runner.Runner
	sessionService session.Service
	// Session tracking for multi-turn conversations
	userID     string
	sessionID  string
	hasSession bool
}

// New creates the assistant over a toolset with the given LLM config
func New(ctx context.Context, cfg llm.Config, ts *Toolset) (*ThreatModelAgent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	model, err := llm.NewModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM model: %w", err)
	}

	tools, err := ts.AllTools()
	if err != nil {
		return nil, err
	}

	tmAgent, err := llmagent.New(llmagent.Config{
		Name:        "threat_model_agent",
		Description: "Security reviewer assistant for the ML platform threat model, control catalog and compliance mapping",
		Model:       model,
		Instruction: SystemInstruction,
		Tools:       tools,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	sessionSvc := session.InMemoryService()

	r, err := runner.New(runner.Config{
		AppName:        AppName,
		Agent:          tmAgent,
		SessionService: sessionSvc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	return &ThreatModelAgent{
		agent:          tmAgent,
		runner:         r,
		sessionService: sessionSvc,
	}, nil
}

// AllTools returns catalog, compliance and analytics tools together
func (ts *Toolset) AllTools() ([]tool.Tool, error) {
	tools, err := ts.CreateTools()
	if err != nil {
		return nil, fmt.Errorf("failed to create tools: %w", err)
	}

	grcTools, err := ts.CreateGRCTools()
	if err != nil {
		return nil, fmt.Errorf("failed to create GRC tools: %w", err)
	}
	tools = append(tools, grcTools...)

	analyticsTools, err := ts.CreateAnalyticsTools()
	if err != nil {
		return nil, fmt.Errorf("failed to create analytics tools: %w", err)
	}
	return append(tools, analyticsTools...), nil
}

// Agent returns the underlying ADK agent for use with launchers
func (a *ThreatModelAgent) Agent() agent.Agent {
	return a.agent
}

// Query sends a one-shot question in a fresh session
func (a *ThreatModelAgent) Query(ctx context.Context, query string) (string, error) {
	sessionResp, err := a.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   AppName,
		UserID:    "user",
		SessionID: fmt.Sprintf("query-%d", time.Now().UnixNano()),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return a.run(ctx, sessionResp.Session.UserID(), sessionResp.Session.ID(), query)
}

// Chat sends a query using a persistent session for multi-turn conversations.
// The first call creates the session.
func (a *ThreatModelAgent) Chat(ctx context.Context, query string) (string, error) {
	if !a.hasSession {
		sessionResp, err := a.sessionService.Create(ctx, &session.CreateRequest{
			AppName:   AppName,
			UserID:    "chat-user",
			SessionID: fmt.Sprintf("chat-%d", time.Now().UnixNano()),
		})
		if err != nil {
			return "", fmt.Errorf("failed to create session: %w", err)
		}
		a.userID = sessionResp.Session.UserID()
		a.sessionID = sessionResp.Session.ID()
		a.hasSession = true
	}
	return a.run(ctx, a.userID, a.sessionID, query)
}

func (a *ThreatModelAgent) run(ctx context.Context, userID, sessionID, query string) (string, error) {
	userMsg := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{genai.NewPartFromText(query)},
	}

	var response strings.Builder
	for event, err := range a.runner.Run(ctx, userID, sessionID, userMsg, agent.RunConfig{}) {
		if err != nil {
			return "", fmt.Errorf("agent error: %w", err)
		}
		if event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			if part.Text != "" {
				response.WriteString(part.Text)
			}
		}
	}

	return response.String(), nil
}

// ClearSession starts a fresh conversation on the next Chat call
func (a *ThreatModelAgent) ClearSession() {
	a.hasSession = false
	a.userID = ""
	a.sessionID = ""
}
