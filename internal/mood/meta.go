package mood

// Meta holds display metadata for a mood.
//
// Energy and Valence place the mood on the same 0-1 energy/positivity plane
// Spotify uses for tracks: energy is intensity, valence is positivity.
type Meta struct {
	Mood        Mood
	Emoji       string
	Label       string
	Description string
	Energy      float64
	Valence     float64
}

var metadata = map[Mood]Meta{
	Happy: {
		Mood:        Happy,
		Emoji:       "😊",
		Label:       "Happy",
		Description: "We sensed you're feeling joyful! Here's an uplifting mix to amplify your positive vibes.",
		Energy:      0.7,
		Valence:     0.9,
	},
	Sad: {
		Mood:        Sad,
		Emoji:       "😢",
		Label:       "Sad",
		Description: "We sensed you're feeling down. Here's a gentle, comforting playlist to accompany your emotions.",
		Energy:      0.2,
		Valence:     0.15,
	},
	Calm: {
		Mood:        Calm,
		Emoji:       "😌",
		Label:       "Calm",
		Description: "We sensed you're feeling peaceful. Here's a soft ambient mix to match your tranquil state.",
		Energy:      0.2,
		Valence:     0.6,
	},
	Anxious: {
		Mood:        Anxious,
		Emoji:       "😰",
		Label:       "Anxious",
		Description: "We sensed you're feeling overwhelmed. Here's a soothing lo-fi collection to help you unwind.",
		Energy:      0.65,
		Valence:     0.25,
	},
	Angry: {
		Mood:        Angry,
		Emoji:       "😠",
		Label:       "Angry",
		Description: "We sensed you're feeling frustrated. Here's an energetic mix to help you channel that intensity.",
		Energy:      0.9,
		Valence:     0.1,
	},
	Romantic: {
		Mood:        Romantic,
		Emoji:       "💖",
		Label:       "Romantic",
		Description: "We sensed you're feeling loving. Here's a tender acoustic collection for your heart.",
		Energy:      0.4,
		Valence:     0.8,
	},
	Energetic: {
		Mood:        Energetic,
		Emoji:       "🔥",
		Label:       "Energetic",
		Description: "We sensed you're feeling pumped! Here's a high-energy mix to fuel your motivation.",
		Energy:      0.95,
		Valence:     0.75,
	},
}

// Info returns the metadata for m. Unknown moods get the Default metadata.
func Info(m Mood) Meta {
	if meta, ok := metadata[m]; ok {
		return meta
	}
	return metadata[Default]
}

// Infos returns metadata for every mood in canonical order.
func Infos() []Meta {
	out := make([]Meta, len(all))
	for i, m := range all {
		out[i] = metadata[m]
	}
	return out
}
