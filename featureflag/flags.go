package featureflag

type Flag string

const (
	FlagDisableStoreState                Flag = "DISABLE_STORE_STATE"
	FlagDisableCommitBroadcast           Flag = "DISABLE_COMMIT_BROADCAST"
	FlagDisableTooltip                   Flag = "DISABLE_TOOLTIP"
	FlagDisableSceneStream               Flag = "DISABLE_SCENE_STREAM"
	FlagDisableParticipantJoinBroadcast  Flag = "DISABLE_PARTICIPANT_JOIN_BROADCAST"
	FlagDisableParticipantLeaveBroadcast Flag = "DISABLE_PARTICIPANT_LEAVE_BROADCAST"
)
