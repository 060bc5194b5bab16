package hookgen

import (
	"fmt"
	"strings"

	"github.com/hookscontent/hooks/internal/models"
	"github.com/hookscontent/hooks/internal/videos"
)

// maxTranscriptRunes bounds how much transcript is sent to the model.
const maxTranscriptRunes = 6000

func generationPrompt(req models.HookGenerationRequest) string {
	var extra strings.Builder
	if niche := strings.TrimSpace(req.Niche); niche != "" {
		fmt.Fprintf(&extra, "Nicho: %s\n", niche)
	}
	if platform := strings.TrimSpace(req.Platform); platform != "" {
		fmt.Fprintf(&extra, "Plataforma: %s\n", platform)
	}

	return fmt.Sprintf(`Eres un guionista de videos cortos. Escribe un hook de apertura por cada tipo: %s.

Idea: %s
%s
Cada hook debe caber en una frase de menos de 20 palabras. Estima retention_score entre 0 y 100.

Responde SOLO con JSON:
{"hooks": [{"text": "...", "type": "...", "retention_score": 0, "description": "..."}]}`,
		strings.Join(Types, ", "), strings.TrimSpace(req.Idea), extra.String())
}

func breakdownPrompt(content videos.Content) string {
	transcript := content.Transcript
	if runes := []rune(transcript); len(runes) > maxTranscriptRunes {
		transcript = string(runes[:maxTranscriptRunes])
	}

	return fmt.Sprintf(`Analiza la transcripción de un video viral.

Título: %s
Transcripción:
%s

Devuelve el hook del video en dos versiones: "used_in_video" tal como se dice y "general" reutilizable con %s donde el creador personaliza. Indica su tipo (%s).
Escribe además "script_base": un guion completo y replicable con %s en lugar de los detalles concretos.

Responde SOLO con JSON:
{"hook": {"general": "...", "used_in_video": "...", "type": "..."}, "script_base": "..."}`,
		content.Title, transcript, Blank, strings.Join(Types, ", "), Blank)
}
