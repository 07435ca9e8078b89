package cart

// AdmissionDecision is the outcome of an admission check.
type AdmissionDecision string

const (
	// Accept admits the requested quantity.
	Accept AdmissionDecision = "accept"
	// AcceptWithBackorder admits the quantity beyond on-hand stock under the
	// branch's backorder policy.
	AcceptWithBackorder AdmissionDecision = "accept_backorder"
	// Reject refuses the requested quantity.
	Reject AdmissionDecision = "reject"
)

// BranchStock is the branch-scoped availability snapshot for a product.
// Stock of nil means unlimited.
type BranchStock struct {
	IsEnabled      bool
	Stock          *int
	AllowBackorder bool
}

// Admit decides whether a requested quantity may enter the cart. It is a
// stateless read-then-decide check: it never reserves or decrements stock, so
// concurrent callers can collectively over-admit. Authoritative enforcement
// happens at checkout.
//
// Without branch scoping the only rule is global product availability. With
// branch scoping: a disabled product is rejected, nil stock admits any
// quantity, quantity within stock is admitted, and a quantity beyond an
// exhausted stock is admitted as a backorder only when the branch allows it.
func Admit(requested int, branch *BranchStock, productAvailable bool) AdmissionDecision {
	if requested <= 0 {
		return Reject
	}

	if branch == nil {
		if productAvailable {
			return Accept
		}
		return Reject
	}

	if !branch.IsEnabled {
		return Reject
	}
	if branch.Stock == nil {
		return Accept
	}
	if requested <= *branch.Stock {
		return Accept
	}
	if *branch.Stock <= 0 && branch.AllowBackorder {
		return AcceptWithBackorder
	}
	return Reject
}
