package assistant

import (
	"bytes"
	"context"
	"embed"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hrygo/gigvoice/plugin/ai/router"
)

const (
	localeEnglish = "en"
	localeHindi   = "hi"
)

//go:embed guides
var guideFS embed.FS

// Module is a step-by-step help module shown by the client.
type Module struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Steps []string `json:"steps"`
}

// Guide is a markdown how-to, pre-rendered to HTML.
type Guide struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

var staticReplies = map[string]map[router.Intent]string{
	localeEnglish: {
		router.IntentRoadAlert:       "Thanks for the alert. Take an alternate route if you can and ride safely. I'll keep it in mind for your next pickups.",
		router.IntentOnboardingHelp:  "Welcome aboard! Here is how to get started in a few simple steps.",
		router.IntentEmergency:       "If you are in danger, call 112 right now. For an accident, call 108 for an ambulance. Stay where it is safe and share your location with support.",
		router.IntentGuideChallan:    "Here is how to check and pay a traffic challan.",
		router.IntentGuideDigiLocker: "Here is how to keep your licence and RC in DigiLocker.",
		router.IntentInsurance:       "Your ride is covered by accident insurance while you are on an active delivery. To claim, report the incident to support within 24 hours with photos and your order ID.",
		router.IntentCustomerService: "You can reach partner support 24x7 from the Help tab in the app, or tell me your issue and I'll note it for you.",
	},
	localeHindi: {
		router.IntentRoadAlert:       "अलर्ट के लिए धन्यवाद। हो सके तो दूसरा रास्ता लें और सुरक्षित चलाएं।",
		router.IntentOnboardingHelp:  "स्वागत है! शुरू करने के आसान कदम ये हैं।",
		router.IntentEmergency:       "अगर आप खतरे में हैं तो तुरंत 112 पर कॉल करें। दुर्घटना होने पर एम्बुलेंस के लिए 108 पर कॉल करें। सुरक्षित जगह पर रहें और सपोर्ट को अपनी लोकेशन भेजें।",
		router.IntentGuideChallan:    "ट्रैफिक चालान देखने और भरने का तरीका यह है।",
		router.IntentGuideDigiLocker: "DigiLocker में लाइसेंस और RC रखने का तरीका यह है।",
		router.IntentInsurance:       "डिलीवरी के दौरान आपकी सवारी दुर्घटना बीमा से कवर है। क्लेम के लिए 24 घंटे के अंदर फोटो और ऑर्डर ID के साथ सपोर्ट को बताएं।",
		router.IntentCustomerService: "ऐप के Help टैब से आप 24x7 पार्टनर सपोर्ट से बात कर सकते हैं, या अपनी समस्या मुझे बताएं।",
	},
}

var onboardingModules = map[string]*Module{
	localeEnglish: {
		ID:    "onboarding",
		Title: "Getting started",
		Steps: []string{
			"Upload your driving licence, RC and Aadhaar in the Documents section.",
			"Add your bank account or UPI ID for payouts.",
			"Complete the short safety training video.",
			"Go online from the home screen to start receiving orders.",
		},
	},
	localeHindi: {
		ID:    "onboarding",
		Title: "शुरुआत कैसे करें",
		Steps: []string{
			"Documents सेक्शन में ड्राइविंग लाइसेंस, RC और आधार अपलोड करें।",
			"पेमेंट के लिए अपना बैंक खाता या UPI ID जोड़ें।",
			"छोटा सा सेफ्टी ट्रेनिंग वीडियो पूरा करें।",
			"ऑर्डर पाने के लिए होम स्क्रीन से ऑनलाइन जाएं।",
		},
	},
}

var apologies = map[string]string{
	localeEnglish: "Sorry, I can't answer that right now. You can ask me to create, track or cancel an order.",
	localeHindi:   "माफ़ कीजिए, अभी मैं इसका जवाब नहीं दे सकता। आप मुझसे ऑर्डर बनाने, ट्रैक करने या कैंसल करने को कह सकते हैं।",
}

// contentLibrary holds the guides rendered at startup.
type contentLibrary struct {
	guides map[string]map[router.Intent]*Guide
}

func newContentLibrary() (*contentLibrary, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	lib := &contentLibrary{guides: map[string]map[router.Intent]*Guide{}}

	for _, locale := range []string{localeEnglish, localeHindi} {
		lib.guides[locale] = map[router.Intent]*Guide{}
		for _, intent := range []router.Intent{router.IntentGuideChallan, router.IntentGuideDigiLocker} {
			name := path.Join("guides", locale, string(intent)+".md")
			src, err := guideFS.ReadFile(name)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to read guide %s", name)
			}
			var html bytes.Buffer
			if err := md.Convert(src, &html); err != nil {
				return nil, errors.Wrapf(err, "failed to render guide %s", name)
			}
			lib.guides[locale][intent] = &Guide{
				ID:       string(intent),
				Title:    guideTitle(string(src)),
				Markdown: string(src),
				HTML:     html.String(),
			}
		}
	}
	return lib, nil
}

func (l *contentLibrary) guide(locale string, intent router.Intent) *Guide {
	return l.guides[locale][intent]
}

func guideTitle(src string) string {
	for _, line := range strings.Split(src, "\n") {
		if title, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(title)
		}
	}
	return ""
}

// normalizeLocale maps a locale tag to a supported locale. "hi" and "hi-IN"
// select Hindi; everything else is English.
func normalizeLocale(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == localeHindi || strings.HasPrefix(tag, localeHindi+"-") || strings.HasPrefix(tag, localeHindi+"_") {
		return localeHindi
	}
	return localeEnglish
}

func (s *Service) handleStatic(_ context.Context, turn *turnContext) (*Response, error) {
	intent := turn.classification.Intent
	resp := &Response{
		Reply:  staticReplies[turn.locale][intent],
		Action: string(intent),
	}
	switch intent {
	case router.IntentOnboardingHelp:
		module := *onboardingModules[turn.locale]
		module.Steps = append([]string(nil), module.Steps...)
		resp.Module = &module
	case router.IntentGuideChallan, router.IntentGuideDigiLocker:
		resp.Guide = s.content.guide(turn.locale, intent)
	}
	return resp, nil
}
