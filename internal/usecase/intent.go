package usecase

import "strings"

// Purchase intents recorded in user memory.
const (
	IntentSalad           = "salad"
	IntentHomeCooking     = "home cooking"
	IntentHotPot          = "hot pot"
	IntentSnacks          = "snacks"
	IntentRoutineShopping = "routine shopping"
)

// intentPhrases is checked in order; the first category with a phrase inside the query wins.
var intentPhrases = []struct {
	intent  string
	phrases []string
}{
	{IntentSalad, []string{"salad", "cold dish", "沙拉", "凉拌"}},
	{IntentHomeCooking, []string{"stir-fry", "stir fry", "cooking", "cook", "炒菜", "烹饪", "做饭"}},
	{IntentHotPot, []string{"hot pot", "hotpot", "火锅", "涮锅"}},
	{IntentSnacks, []string{"snack", "零食", "点心"}},
}

// DetectPurchaseIntent classifies a raw query into a purchase intent,
// defaulting to routine shopping.
func DetectPurchaseIntent(query string) string {
	q := strings.ToLower(query)
	for _, category := range intentPhrases {
		for _, phrase := range category.phrases {
			if strings.Contains(q, phrase) {
				return category.intent
			}
		}
	}
	return IntentRoutineShopping
}
