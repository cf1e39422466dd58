package httpapi

import (
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/personakit/harness/internal/server"
)

// maskKey hides the middle of a credential, keeping just enough to recognize
// which key is configured.
func maskKey(key string) string {
	if len(key) > 12 {
		return key[:8] + strings.Repeat("*", len(key)-12) + key[len(key)-4:]
	}
	return strings.Repeat("*", len(key))
}

func (h *Handler) GetOpenAIConfig(w http.ResponseWriter, r *http.Request) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		respondJSON(w, http.StatusOK, map[string]any{"configured": false, "key": ""})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"configured": true, "key": maskKey(key)})
}

type setKeyRequest struct {
	Key string `json:"key"`
}

// SetOpenAIConfig persists a new OpenAI key to the env file, updates the
// process environment and rotates the gateway credential.
func (h *Handler) SetOpenAIConfig(w http.ResponseWriter, r *http.Request) {
	var req setKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	key := strings.TrimSpace(req.Key)
	if key == "" {
		respondError(w, http.StatusBadRequest, "API key is required")
		return
	}

	env, err := godotenv.Read(h.envFile)
	if err != nil {
		// Missing file: start fresh.
		env = map[string]string{}
	}
	env["OPENAI_API_KEY"] = key

	if err := godotenv.Write(env, h.envFile); err != nil {
		server.AddError(r.Context(), err)
		respondError(w, http.StatusInternalServerError, "Failed to update API key")
		return
	}

	os.Setenv("OPENAI_API_KEY", key)
	h.gateway.SetCredential(key)

	respondJSON(w, http.StatusOK, map[string]any{
		"message":    "API key updated successfully",
		"configured": true,
	})
}
