package run

import (
	"github.com/qinfyy/Nebula-sub000/internal/content"
	"github.com/qinfyy/Nebula-sub000/internal/weighted"
)

// addHawkerCase registers a shop with freshly generated stock.
func (s *Session) addHawkerCase() *Case {
	h := &HawkerCase{}
	s.generateGoods(h)
	return s.Room.addCase(&Case{Kind: KindHawker, Hawker: h})
}

// generateGoods restocks the shop. The split keeps at least half the stock
// as potential goods; store-wide discount chances are rolled once per tier
// per refresh, each tier touching a bounded number of not-yet-discounted
// goods.
func (s *Session) generateGoods(h *HawkerCase) {
	pricing := s.lib.Hawker

	total := pricing.BaseGoods + s.Mods.HawkerGoodsBonus
	if total < 2 {
		total = 2
	}

	minPotentials := total / 2
	if minPotentials < 2 {
		minPotentials = 2
	}
	maxPotentials := total - 1
	if maxPotentials < minPotentials {
		maxPotentials = minPotentials
	}
	nPotentials := minPotentials + int32(s.rng.Intn(int(maxPotentials-minPotentials)+1))
	nSubNotes := total - nPotentials

	h.Goods = h.Goods[:0]

	for i := int32(0); i < nPotentials; i++ {
		g := Goods{Kind: GoodsPotential, Count: 1, Price: pricing.PotentialPrice}
		if int32(s.rng.Intn(100)) < pricing.CharPotentialPct {
			g.Kind = GoodsCharPotential
			g.CharacterID = s.rollTargetCharacter()
			g.Price = pricing.CharPotentialPrice
		}
		s.pushGoods(h, g)
	}

	canBulk := s.Res[content.CurrencyCoin] >= pricing.BulkSubNotePrice
	for i := int32(0); i < nSubNotes; i++ {
		g := Goods{
			Kind:   GoodsSubNote,
			ItemID: s.rollSubNoteItem(),
			Count:  pricing.SubNoteCount,
			Price:  pricing.SubNotePrice,
		}
		if canBulk && int32(s.rng.Intn(100)) < pricing.BulkChancePct {
			g.Kind = GoodsBulkSubNote
			g.Count = pricing.BulkSubNoteCount
			g.Price = pricing.BulkSubNotePrice
		}
		s.pushGoods(h, g)
	}

	// Modifier discount lands on the base price before tier discounts.
	if s.Mods.HawkerDiscountPct > 0 {
		for i := range h.Goods {
			p := h.Goods[i].Price
			h.Goods[i].Price = p - p*s.Mods.HawkerDiscountPct/100
		}
	}

	for _, tier := range pricing.DiscountTiers {
		if int32(s.rng.Intn(100)) >= tier.ChancePct {
			continue
		}
		s.applyDiscountTier(h, tier)
	}
}

func (s *Session) pushGoods(h *HawkerCase, g Goods) {
	h.nextGoodsID++
	g.ID = h.nextGoodsID
	h.Goods = append(h.Goods, g)
}

// applyDiscountTier marks up to tier.MaxGoods undiscounted goods.
func (s *Session) applyDiscountTier(h *HawkerCase, tier content.DiscountTier) {
	var eligible []int
	for i := range h.Goods {
		if h.Goods[i].DiscountPct == 0 {
			eligible = append(eligible, i)
		}
	}

	picked := weighted.SampleDistinct(s.rng, int(tier.MaxGoods), eligible, func(int) int64 { return 1 })
	for _, idx := range picked {
		h.Goods[idx].DiscountPct = tier.Percent
	}
}

func (s *Session) rollSubNoteItem() int32 {
	var sel weighted.Selector[int32]
	for _, def := range s.lib.SubNotes {
		sel.Add(int64(def.Weight), def.ItemID)
	}
	id, ok := sel.Next(s.rng)
	if !ok {
		return 0
	}
	return id
}

// interactHawker handles buy and reroll requests against the shop, which
// persists across interactions within its room.
func (s *Session) interactHawker(c *Case, p Payload) (InteractResult, error) {
	h := c.Hawker

	if p.Reroll {
		price := s.hawkerRerollPrice(h)
		if price > 0 && !s.spendRes(content.CurrencyCoin, price) {
			return softResult(RetInsufficient), nil
		}
		h.RerollCount++
		s.generateGoods(h)

		res := InteractResult{Ret: RetOK, Hawker: s.hawkerView(h)}
		res.change(content.CurrencyCoin, -price)
		return res, nil
	}

	if p.GoodsID == nil {
		return softResult(RetBadChoice), nil
	}
	g := h.goods(*p.GoodsID)
	if g == nil {
		return softResult(RetBadChoice), nil
	}
	if g.Sold {
		// Idempotent: no currency deducted, no second reward.
		return softResult(RetSoldOut), nil
	}

	// Never sell a potential pick that could not roll anything.
	if g.Kind.potential() && !s.hasRollable(false) {
		return softResult(RetNoCandidates), nil
	}

	price := g.FinalPrice()
	if !s.spendRes(content.CurrencyCoin, price) {
		return softResult(RetInsufficient), nil
	}
	g.Sold = true

	res := InteractResult{Ret: RetOK}
	res.change(content.CurrencyCoin, -price)

	if g.Kind.potential() {
		sel := s.newSelectorCase(g.CharacterID, false)
		spawned := s.Room.addCase(&Case{Kind: KindPotentialSelector, Selector: sel})
		res.NewCases = append(res.NewCases, s.caseView(spawned))
	} else {
		s.grantSubNotes(g.ItemID, g.Count)
		res.change(g.ItemID, g.Count)
	}

	res.Hawker = s.hawkerView(h)
	return res, nil
}

// hawkerRerollPrice escalates once the free refresh budget is spent.
func (s *Session) hawkerRerollPrice(h *HawkerCase) int32 {
	pricing := s.lib.Hawker
	if h.RerollCount < pricing.FreeRerolls {
		return 0
	}
	paid := h.RerollCount - pricing.FreeRerolls
	return pricing.RerollPrice * (paid + 1)
}

func (s *Session) hawkerView(h *HawkerCase) *HawkerView {
	v := &HawkerView{RerollPrice: s.hawkerRerollPrice(h)}
	for _, g := range h.Goods {
		v.Goods = append(v.Goods, GoodsView{
			ID:          g.ID,
			Kind:        int32(g.Kind),
			ItemID:      g.ItemID,
			Count:       g.Count,
			CharacterID: g.CharacterID,
			Price:       g.FinalPrice(),
			DiscountPct: g.DiscountPct,
			Sold:        g.Sold,
		})
	}
	return v
}
