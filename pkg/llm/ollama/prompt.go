package ollama

import (
	"strings"

	"github.com/Natthaphatpiw/agn-chat/pkg/llm"
)

// FormatInstructPrompt flattens chat turns into the Llama-2 chat template.
// System turns are merged into one <<SYS>> block attached to the first user
// turn. The leading <s> is omitted because the runtime adds the BOS token.
func FormatInstructPrompt(turns []llm.Message) string {
	var system []string
	var dialog []llm.Message
	for _, t := range turns {
		if t.Role == llm.RoleSystem {
			system = append(system, strings.TrimSpace(t.Content))
			continue
		}
		dialog = append(dialog, t)
	}

	sysBlock := ""
	if len(system) > 0 {
		sysBlock = "<<SYS>>\n" + strings.Join(system, "\n") + "\n<</SYS>>\n\n"
	}

	var b strings.Builder
	open := false
	first := true

	for _, t := range dialog {
		content := strings.TrimSpace(t.Content)
		if t.Role == llm.RoleAssistant {
			if open {
				b.WriteString(" [/INST] ")
				open = false
			}
			b.WriteString(content)
			b.WriteString(" </s><s>")
			continue
		}

		if open {
			// consecutive user turns share one instruction
			b.WriteString("\n\n")
			b.WriteString(content)
			continue
		}
		b.WriteString("[INST] ")
		if first {
			b.WriteString(sysBlock)
			first = false
		}
		b.WriteString(content)
		open = true
	}

	if first && sysBlock != "" {
		b.WriteString("[INST] ")
		b.WriteString(sysBlock)
		open = true
	}
	if open {
		b.WriteString(" [/INST]")
	}

	return b.String()
}
