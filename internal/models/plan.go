package models

// PlanDefinition описывает тарифный план: цена в иенах и отображаемые тексты.
type PlanDefinition struct {
	ID          PlanTier `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	PriceYen    int      `json:"price_yen"`
}

// PlanDefinitions содержит справочник платных тарифов. Уровень "none" платным планом не является.
var PlanDefinitions = map[PlanTier]PlanDefinition{
	PlanBasic: {
		ID:          PlanBasic,
		Label:       "ベーシックプラン",
		Description: "個別カウンセリング使い放題",
		PriceYen:    500,
	},
	PlanPremium: {
		ID:          PlanPremium,
		Label:       "プレミアムプラン",
		Description: "個別+チームカウンセリング",
		PriceYen:    1500,
	},
}

// PlanIDs сопоставляет платный тариф идентификатору плана в биллинге.
var PlanIDs = map[PlanTier]string{
	PlanBasic:   "basic_monthly",
	PlanPremium: "premium_monthly",
}

// IsPaidPlan сообщает, является ли строка корректным платным тарифом.
func IsPaidPlan(plan string) bool {
	return plan == string(PlanBasic) || plan == string(PlanPremium)
}
