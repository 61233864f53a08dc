package valueobject

import "github.com/retailvoice/callbridge/internal/domain/entity"

// HighValueThreshold is the order total at or above which a return always
// needs a human agent, regardless of reason.
const HighValueThreshold = 10000.0

// ReturnWindowDays is the number of days after delivery within which a
// return may be handled without a human agent.
const ReturnWindowDays = 7

// EligibilityInput is the total function's domain: the four independent
// axes the decision table is keyed on.
type EligibilityInput struct {
	TotalAmount      float64
	DaysSinceDelivery int
	Reason           entity.ReturnReason
	Condition        entity.ReturnCondition
}

// EligibilityDecision is the table's total output.
type EligibilityDecision struct {
	Eligible        bool
	RequiresHandoff bool
	BuyerPaysShip   bool
	Reason          string
}

// sellerPaysReasons are reasons attributable to the seller, not the buyer.
var sellerPaysReasons = map[entity.ReturnReason]bool{
	entity.ReasonDefective: true,
	entity.ReasonDamaged:   true,
	entity.ReasonWrongItem: true,
}

// DecideEligibility implements the §4.1 decision table as a total function
// over its four inputs.
func DecideEligibility(in EligibilityInput) EligibilityDecision {
	if in.TotalAmount >= HighValueThreshold {
		return EligibilityDecision{RequiresHandoff: true, Reason: "high-value, needs agent"}
	}
	if in.DaysSinceDelivery > ReturnWindowDays {
		return EligibilityDecision{RequiresHandoff: true, Reason: "outside return window"}
	}
	if sellerPaysReasons[in.Reason] {
		return EligibilityDecision{Eligible: true, BuyerPaysShip: false, Reason: "seller-caused defect"}
	}
	if in.Condition == entity.ConditionOpened {
		return EligibilityDecision{RequiresHandoff: true, Reason: "opened item, customer-convenience reason"}
	}
	return EligibilityDecision{Eligible: true, BuyerPaysShip: true, Reason: "customer-convenience, unopened"}
}
