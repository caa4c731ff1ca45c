package entity

type FeeMode string

const (
	FeeModeSubsidized FeeMode = "subsidized"
	FeeModeDefrayal   FeeMode = "defrayal"
)

func (m FeeMode) IsValid() bool {
	return m == FeeModeSubsidized || m == FeeModeDefrayal
}
