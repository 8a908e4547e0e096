package providers

// ProviderParams is the optional per-provider knob bag attached to inbound
// requests. A request may carry sub-objects for several providers; only the
// one matching the selected provider is ever consulted.
type ProviderParams struct {
	OpenAI    *OpenAIParams    `json:"openai_params,omitempty"`
	Groq      *GroqParams      `json:"groq_params,omitempty"`
	Zyphra    *ZyphraParams    `json:"zyphra_params,omitempty"`
	Replicate *ReplicateParams `json:"replicate_params,omitempty"`
}

type OpenAIParams struct {
	N                *int     `json:"n,omitempty"`
	PresencePenalty  *float32 `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float32 `json:"frequency_penalty,omitempty"`
	User             *string  `json:"user,omitempty"`
}

type GroqParams struct {
	Seed            *int    `json:"seed,omitempty"`
	ServiceTier     *string `json:"service_tier,omitempty"`
	ReasoningEffort *string `json:"reasoning_effort,omitempty"`
}

type ZyphraParams struct {
	SpeakingRate    *float64 `json:"speaking_rate,omitempty"`
	LanguageISOCode *string  `json:"language_iso_code,omitempty"`
	MimeType        *string  `json:"mime_type,omitempty"`
	VQScore         *float64 `json:"vqscore,omitempty"`
	SpeakerNoised   *bool    `json:"speaker_noised,omitempty"`
}

type ReplicateParams struct {
	GuidanceScale     *float64 `json:"guidance_scale,omitempty"`
	NumInferenceSteps *int     `json:"num_inference_steps,omitempty"`
	Seed              *int     `json:"seed,omitempty"`
	NegativePrompt    *string  `json:"negative_prompt,omitempty"`
}

// ExtractParams returns the non-nil fields of the sub-object matching the
// selected provider. An absent sub-object degrades to an empty map so
// callers apply their own defaults; other providers' sub-objects are ignored
// even when present. Never fails.
func ExtractParams(p ProviderParams, provider Name) map[string]any {
	out := map[string]any{}
	switch provider {
	case OpenAI:
		if p.OpenAI == nil {
			return out
		}
		if p.OpenAI.N != nil {
			out["n"] = *p.OpenAI.N
		}
		if p.OpenAI.PresencePenalty != nil {
			out["presence_penalty"] = *p.OpenAI.PresencePenalty
		}
		if p.OpenAI.FrequencyPenalty != nil {
			out["frequency_penalty"] = *p.OpenAI.FrequencyPenalty
		}
		if p.OpenAI.User != nil {
			out["user"] = *p.OpenAI.User
		}
	case Groq:
		if p.Groq == nil {
			return out
		}
		if p.Groq.Seed != nil {
			out["seed"] = *p.Groq.Seed
		}
		if p.Groq.ServiceTier != nil {
			out["service_tier"] = *p.Groq.ServiceTier
		}
		if p.Groq.ReasoningEffort != nil {
			out["reasoning_effort"] = *p.Groq.ReasoningEffort
		}
	case Zyphra:
		if p.Zyphra == nil {
			return out
		}
		if p.Zyphra.SpeakingRate != nil {
			out["speaking_rate"] = *p.Zyphra.SpeakingRate
		}
		if p.Zyphra.LanguageISOCode != nil {
			out["language_iso_code"] = *p.Zyphra.LanguageISOCode
		}
		if p.Zyphra.MimeType != nil {
			out["mime_type"] = *p.Zyphra.MimeType
		}
		if p.Zyphra.VQScore != nil {
			out["vqscore"] = *p.Zyphra.VQScore
		}
		if p.Zyphra.SpeakerNoised != nil {
			out["speaker_noised"] = *p.Zyphra.SpeakerNoised
		}
	case Replicate:
		if p.Replicate == nil {
			return out
		}
		if p.Replicate.GuidanceScale != nil {
			out["guidance_scale"] = *p.Replicate.GuidanceScale
		}
		if p.Replicate.NumInferenceSteps != nil {
			out["num_inference_steps"] = *p.Replicate.NumInferenceSteps
		}
		if p.Replicate.Seed != nil {
			out["seed"] = *p.Replicate.Seed
		}
		if p.Replicate.NegativePrompt != nil {
			out["negative_prompt"] = *p.Replicate.NegativePrompt
		}
	}
	return out
}
