package content

// DefaultLibrary builds the in-code content tables the server ships with.
// Deployments with live data replace this wholesale; the engine only ever
// sees the Library type.
func DefaultLibrary() *Library {
	lib := &Library{
		Towers:     map[int32]TowerDef{},
		Potentials: map[int32]PotentialDef{},
		Events:     map[int32]EventDef{},
	}

	lib.Towers[12001] = TowerDef{
		ID:         12001,
		Difficulty: 1,
		StartCoins: 80,
		Stages: []StageDef{
			{StageNum: 1, Floors: []FloorDef{
				{RoomCode: RoomCodeBattle, ClearExp: 40},
				{RoomCode: RoomCodeEvent},
				{RoomCode: RoomCodeBattle, ClearExp: 45},
				{RoomCode: RoomCodeHawker},
				{RoomCode: RoomCodeBattleElite, ClearExp: 70},
			}},
			{StageNum: 2, Floors: []FloorDef{
				{RoomCode: RoomCodeBattle, ClearExp: 55},
				{RoomCode: RoomCodeEvent},
				{RoomCode: RoomCodeRest},
				{RoomCode: RoomCodeBattle, ClearExp: 60},
				{RoomCode: RoomCodeHawker},
				{RoomCode: RoomCodeBattleElite, ClearExp: 90},
			}},
			{StageNum: 3, Floors: []FloorDef{
				{RoomCode: RoomCodeBattle, ClearExp: 75},
				{RoomCode: RoomCodeEvent},
				{RoomCode: RoomCodeBattle, ClearExp: 80},
				{RoomCode: RoomCodeRest},
				{RoomCode: RoomCodeBattleBoss, ClearExp: 140},
			}},
		},
		SweepRewards: map[int32]int32{
			CurrencyCoin: 200,
			8001:         6,
			8002:         4,
		},
	}

	lib.Towers[12002] = TowerDef{
		ID:         12002,
		Difficulty: 2,
		StartCoins: 100,
		Stages: []StageDef{
			{StageNum: 1, Floors: []FloorDef{
				{RoomCode: RoomCodeBattle, ClearExp: 60},
				{RoomCode: RoomCodeEvent},
				{RoomCode: RoomCodeHawker},
				{RoomCode: RoomCodeBattleElite, ClearExp: 100},
			}},
			{StageNum: 2, Floors: []FloorDef{
				{RoomCode: RoomCodeBattle, ClearExp: 80},
				{RoomCode: RoomCodeRest},
				{RoomCode: RoomCodeBattle, ClearExp: 85},
				{RoomCode: RoomCodeBattleBoss, ClearExp: 180},
			}},
		},
		SweepRewards: map[int32]int32{
			CurrencyCoin: 320,
			8001:         8,
			8003:         4,
		},
	}

	// Potentials: three per character, score tables grow by level.
	type pot struct {
		id, char, max, weight int32
		score                 []int32
	}
	pots := []pot{
		{3101, 1301, 5, 100, []int32{10, 50, 120, 220, 360}},
		{3102, 1301, 5, 80, []int32{12, 55, 130, 240, 380}},
		{3103, 1301, 3, 40, []int32{30, 110, 260}},
		{3201, 1302, 5, 100, []int32{10, 50, 120, 220, 360}},
		{3202, 1302, 5, 80, []int32{14, 60, 140, 250, 400}},
		{3203, 1302, 3, 40, []int32{28, 100, 240}},
		{3301, 1303, 5, 100, []int32{10, 50, 120, 220, 360}},
		{3302, 1303, 5, 80, []int32{12, 52, 126, 232, 370}},
		{3303, 1303, 3, 40, []int32{32, 116, 270}},
		{3401, 1304, 5, 90, []int32{11, 48, 118, 218, 350}},
		{3402, 1304, 4, 60, []int32{20, 80, 180, 320}},
		{3501, 1305, 5, 90, []int32{11, 48, 118, 218, 350}},
		{3502, 1305, 4, 60, []int32{22, 84, 190, 330}},
	}
	for _, p := range pots {
		lib.Potentials[p.id] = PotentialDef{
			ID:          p.id,
			CharacterID: p.char,
			MaxLevel:    p.max,
			Weight:      p.weight,
			BuildScore:  p.score,
		}
	}

	lib.Events = map[int32]EventDef{
		5101: {ID: 5101, Options: []EventOption{
			{ID: 1, Effect: EffectGainCurrency, ItemID: CurrencyCoin, Amount: 60},
			{ID: 2, Effect: EffectGainSubNotes, ItemID: 8001, Amount: 3},
			{ID: 3, Effect: EffectDisplay},
		}},
		5102: {ID: 5102, Options: []EventOption{
			{ID: 1, Effect: EffectSpendCurrency, ItemID: CurrencyCoin, Amount: 40},
			{ID: 2, Effect: EffectPotentialPick},
			{ID: 3, Effect: EffectGainCurrency, ItemID: CurrencyCoin, Amount: 25},
			{ID: 4, Effect: EffectDisplay},
			{ID: 5, Effect: EffectGainSubNotes, ItemID: 8002, Amount: 2},
		}},
		// Question events: the correct option must survive sampling.
		5201: {ID: 5201, Options: []EventOption{
			{ID: 1, Effect: EffectDisplay},
			{ID: 2, Effect: EffectDisplay},
			{ID: 3, Effect: EffectPotentialPick, Correct: true},
			{ID: 4, Effect: EffectDisplay},
			{ID: 5, Effect: EffectDisplay},
		}},
		5202: {ID: 5202, Options: []EventOption{
			{ID: 1, Effect: EffectDisplay},
			{ID: 2, Effect: EffectGainCurrency, ItemID: CurrencyCoin, Amount: 100, Correct: true},
			{ID: 3, Effect: EffectDisplay},
			{ID: 4, Effect: EffectDisplay},
			{ID: 5, Effect: EffectDisplay},
		}},
	}
	lib.EventPool = []int32{5101, 5102, 5201, 5202}

	lib.SubNotes = []SubNoteDef{
		{ItemID: 8001, Weight: 100},
		{ItemID: 8002, Weight: 70},
		{ItemID: 8003, Weight: 40},
		{ItemID: 8004, Weight: 15},
	}

	lib.LevelExp = []int32{50, 70, 95, 125, 160, 200, 245, 295, 350}

	lib.Hawker = HawkerPricing{
		BaseGoods:          5,
		PotentialPrice:     55,
		CharPotentialPrice: 70,
		CharPotentialPct:   30,
		SubNotePrice:       25,
		SubNoteCount:       2,
		BulkSubNotePrice:   60,
		BulkSubNoteCount:   6,
		BulkChancePct:      35,
		DiscountTiers: []DiscountTier{
			{Percent: 20, ChancePct: 40, MaxGoods: 2},
			{Percent: 50, ChancePct: 10, MaxGoods: 1},
		},
		FreeRerolls: 1,
		RerollPrice: 20,
	}

	lib.Strengthen = StrengthenPricing{Base: 60, Increment: 30}
	lib.Selector = SelectorPricing{RerollPrice: 15}

	return lib
}
