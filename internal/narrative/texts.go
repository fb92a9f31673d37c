package narrative

import "github.com/wonny/crisis-audit/internal/engine"

type leveled struct {
	healthy, warning, critical, unknown string
}

// defaultEntries built-in messages
func defaultEntries() Entries {
	en := map[Topic]leveled{
		TopicOverall: {
			healthy:  "STABLE. Price defense lines hold and funding markets show no stress.",
			warning:  "CAUTION. Either a defense line is under friction or funding markets are tight. Watch liquidity before price.",
			critical: "EMERGENCY. A defense line has broken while funding markets are stressed. Physical repricing dominates.",
			unknown:  "INSUFFICIENT DATA. The overall state cannot be determined from the available inputs.",
		},
		TopicPriceDefense: {
			healthy:  "Both indices trade above their friction lines.",
			warning:  "At least one index is inside its friction zone.",
			critical: "At least one index has fallen through its defense line.",
			unknown:  "Index levels are unavailable.",
		},
		TopicReserveSpread: {
			healthy:  "Reserves circulate smoothly; overnight funding trades at or below the reserve rate.",
			warning:  "Reserves are tightening and short-term funding costs are rising.",
			critical: "Interbank funding capacity is exhausted; overnight rates trade well above the reserve rate.",
			unknown:  "SOFR or IORB is unavailable.",
		},
		TopicRateDeviation: {
			healthy:  "The 10Y yield stays within its short-term average.",
			warning:  "The 10Y yield is pulling away from its short-term average.",
			critical: "The 10Y yield is accelerating beyond its short-term average and forcing a repricing.",
			unknown:  "Not enough 10Y yield history.",
		},
		TopicRealYield: {
			healthy:  "Real borrowing costs remain compatible with growth investment.",
			warning:  "Rising real costs are squeezing reinvestment margins.",
			critical: "Real costs are high enough to stall growth investment.",
			unknown:  "The 10Y real yield is unavailable.",
		},
		TopicAuctionTail: {
			healthy:  "Treasury auctions clear smoothly.",
			warning:  "Auction demand is fading; dealers are absorbing inventory.",
			critical: "Auctions are tailing heavily; end demand for Treasuries is failing.",
			unknown:  "No recent auction result.",
		},
		TopicLiquidity: {
			healthy:  "Liquidity friction is contained.",
			warning:  "Friction shows up across several liquidity metrics.",
			critical: "Two or more liquidity metrics are critical.",
			unknown:  "Too many liquidity metrics are missing to reach a verdict.",
		},
		TopicDurability: {
			healthy:  "Cash flow covers the physical burden of the build-out with room to spare.",
			warning:  "Cash flow barely covers the physical burden; little margin for cost increases.",
			critical: "Cash flow no longer covers the physical burden; the build-out depends on external funding.",
			unknown:  "Cash flow or burden data is incomplete.",
		},
		TopicGroupRelative: {
			healthy:  "The focus group keeps pace with the benchmark.",
			warning:  "The focus group is lagging the benchmark.",
			critical: "The focus group is being sold against the benchmark.",
			unknown:  "Relative performance is unavailable.",
		},
		TopicCreditSpread: {
			healthy:  "High-yield credit keeps pace with investment grade.",
			warning:  "High-yield credit is underperforming investment grade.",
			critical: "High-yield credit is sharply underperforming; credit stress is spreading.",
			unknown:  "Credit proxy prices are unavailable.",
		},
	}

	ja := map[Topic]leveled{
		TopicOverall: {
			healthy:  "安定：防衛ラインは維持され、資金市場にストレスは見られません。",
			warning:  "警戒：防衛ラインの摩擦、または資金市場の逼迫が発生しています。価格より流動性を注視してください。",
			critical: "緊急：防衛ラインが崩れ、資金市場もストレス状態です。物理的な価格再設定が優先される局面です。",
			unknown:  "データ不足：現在の入力では全体状態を判定できません。",
		},
		TopicPriceDefense: {
			healthy:  "両指数とも摩擦ラインを上回っています。",
			warning:  "少なくとも一つの指数が摩擦ゾーンにあります。",
			critical: "少なくとも一つの指数が防衛ラインを割り込みました。",
			unknown:  "指数データを取得できません。",
		},
		TopicReserveSpread: {
			healthy:  "準備金は円滑に循環しており、翌日物金利は準備預金金利以下です。",
			warning:  "準備金が減少し、短期調達コストが上昇しています。",
			critical: "銀行間の資金供給余力が枯渇し、翌日物金利が準備預金金利を大きく上回っています。",
			unknown:  "SOFR または IORB を取得できません。",
		},
		TopicRateDeviation: {
			healthy:  "10年債利回りは短期平均の範囲内です。",
			warning:  "10年債利回りが短期平均から乖離し始めています。",
			critical: "10年債利回りが短期平均を大きく超えて加速し、価格再設定を強いています。",
			unknown:  "10年債利回りの履歴が不足しています。",
		},
		TopicRealYield: {
			healthy:  "実質コストは成長投資と両立する水準です。",
			warning:  "実質コストの上昇が再投資の利幅を圧迫しています。",
			critical: "実質コストが成長投資を止める水準に達しています。",
			unknown:  "10年実質利回りを取得できません。",
		},
		TopicAuctionTail: {
			healthy:  "国債入札は円滑に消化されています。",
			warning:  "入札需要が弱まり、ディーラーが在庫を抱え始めています。",
			critical: "入札テールが大きく、国債の最終需要が失われつつあります。",
			unknown:  "直近の入札結果がありません。",
		},
		TopicLiquidity: {
			healthy:  "流動性の摩擦は限定的です。",
			warning:  "複数の流動性指標で摩擦が見られます。",
			critical: "二つ以上の流動性指標が危険水準です。",
			unknown:  "欠損している流動性指標が多く、判定できません。",
		},
		TopicDurability: {
			healthy:  "キャッシュフローが設備の物理的負担を十分に賄っています。",
			warning:  "キャッシュフローが物理的負担をかろうじて賄っており、コスト増への余力が乏しい状態です。",
			critical: "キャッシュフローが物理的負担を賄えず、外部資金への依存が始まっています。",
			unknown:  "キャッシュフローまたは負担のデータが不完全です。",
		},
		TopicGroupRelative: {
			healthy:  "対象グループはベンチマークと同等以上の推移です。",
			warning:  "対象グループがベンチマークに劣後しています。",
			critical: "対象グループがベンチマークに対して売られています。",
			unknown:  "相対パフォーマンスを取得できません。",
		},
		TopicCreditSpread: {
			healthy:  "ハイイールド債は投資適格債と同等の推移です。",
			warning:  "ハイイールド債が投資適格債に劣後しています。",
			critical: "ハイイールド債が大きく劣後し、信用ストレスが広がっています。",
			unknown:  "クレジット代理指標の価格を取得できません。",
		},
	}

	titles := map[Topic]map[Language]string{
		TopicOverall:       {English: "Overall", Japanese: "総合判定"},
		TopicPriceDefense:  {English: "Price defense lines", Japanese: "価格防衛ライン"},
		TopicReserveSpread: {English: "Overnight funding (SOFR vs IORB)", Japanese: "翌日物金利 (SOFR vs IORB)"},
		TopicRateDeviation: {English: "10Y yield deviation", Japanese: "10年債利回り乖離"},
		TopicRealYield:     {English: "10Y real yield", Japanese: "10年実質利回り"},
		TopicAuctionTail:   {English: "Treasury auction tail", Japanese: "米国債入札テール"},
		TopicLiquidity:     {English: "Layer 2: liquidity friction", Japanese: "レイヤー2: 流動性摩擦"},
		TopicDurability:    {English: "Layer 1: capital durability", Japanese: "レイヤー1: 資本耐久性"},
		TopicGroupRelative: {English: "Relative performance", Japanese: "相対パフォーマンス"},
		TopicCreditSpread:  {English: "Credit spread", Japanese: "クレジットスプレッド"},
	}

	labels := map[engine.Level]map[Language]string{
		engine.LevelHealthy:  {English: "HEALTHY", Japanese: "正常"},
		engine.LevelWarning:  {English: "WARNING", Japanese: "警告"},
		engine.LevelCritical: {English: "CRITICAL", Japanese: "危険"},
		engine.LevelUnknown:  {English: "UNKNOWN", Japanese: "不明"},
	}

	messages := make(map[Key]string)
	for lang, table := range map[Language]map[Topic]leveled{English: en, Japanese: ja} {
		for topic, l := range table {
			messages[Key{topic, engine.LevelHealthy, lang}] = l.healthy
			messages[Key{topic, engine.LevelWarning, lang}] = l.warning
			messages[Key{topic, engine.LevelCritical, lang}] = l.critical
			messages[Key{topic, engine.LevelUnknown, lang}] = l.unknown
		}
	}

	return Entries{Messages: messages, Titles: titles, Labels: labels}
}
