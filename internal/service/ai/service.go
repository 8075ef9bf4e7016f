package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/liuyint/policydesk/internal/config"
	"github.com/liuyint/policydesk/internal/model/chat"
	"github.com/liuyint/policydesk/internal/model/scenario"
	"github.com/liuyint/policydesk/internal/model/team"
)

// NoContentReply stands in for an empty model response so the chat
// history never records a blank teammate turn.
const NoContentReply = "[AI did not return any content.]"

// Service is the Ark-backed teammate gateway. It owns the transport;
// the engine only sees its Reply method.
type Service struct {
	chatModel model.ChatModel
	cfg       config.AIConfig
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService builds the chat model and compiles the prompt chain.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		cfg:       cfg,
		chain:     runnable,
	}, nil
}

// Reply sends one chat exchange to the model: the system prompt built
// from the scenario and team memory, the prior turns of this round,
// and the newest participant message last. An empty model reply is
// normalized to NoContentReply; transport failures are returned to the
// caller, which surfaces them in-band.
func (s *Service) Reply(ctx context.Context, sc scenario.Scenario, mem team.Memory, history chat.Transcript, message string) (string, error) {
	input := map[string]any{
		"system":  BuildSystemPrompt(sc, mem),
		"history": historyMessages(history),
		"query":   message,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run teammate chain: %w", err)
	}

	reply := strings.TrimSpace(response.Content)
	if reply == "" {
		return NoContentReply, nil
	}

	log.Printf("[ai] generated reply for scenario=%s, length=%d", sc.ID, len(reply))
	return reply, nil
}

// historyMessages maps the two-speaker transcript onto the model's
// requester/responder schema.
func historyMessages(history chat.Transcript) []*schema.Message {
	if len(history) == 0 {
		return nil
	}

	messages := make([]*schema.Message, 0, len(history))
	for _, turn := range history {
		switch turn.Speaker {
		case chat.SpeakerParticipant:
			messages = append(messages, schema.UserMessage(turn.Text))
		case chat.SpeakerAI:
			messages = append(messages, schema.AssistantMessage(turn.Text, nil))
		}
	}
	return messages
}
