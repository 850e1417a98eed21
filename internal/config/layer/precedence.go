package layer

// Standard priority levels for configuration layers.
// Higher values override lower values during merging.
const (
	// PriorityEngineBase is the lowest priority for engine defaults.
	PriorityEngineBase = 0

	// PriorityProjectDefault is for the project's Default<Name>.ini.
	PriorityProjectDefault = 100

	// PriorityEnginePlatform is for engine platform files.
	PriorityEnginePlatform = 200

	// PriorityProjectPlatform is for project platform files.
	PriorityProjectPlatform = 300

	// PriorityCustom is for custom-config files.
	PriorityCustom = 400

	// PrioritySaved is for the saved user file.
	PrioritySaved = 500

	// PriorityOverride is the highest priority, for command-line overrides.
	PriorityOverride = 1000
)

// DefaultPriority returns the default priority for a given source.
func DefaultPriority(source Source) int {
	switch source {
	case SourceEngineBase:
		return PriorityEngineBase
	case SourceProjectDefault:
		return PriorityProjectDefault
	case SourceEnginePlatform:
		return PriorityEnginePlatform
	case SourceProjectPlatform:
		return PriorityProjectPlatform
	case SourceCustom:
		return PriorityCustom
	case SourceSaved:
		return PrioritySaved
	case SourceOverride:
		return PriorityOverride
	default:
		return PriorityEngineBase
	}
}

// StandardLayerNames defines standard names for configuration layers.
var StandardLayerNames = map[Source]string{
	SourceEngineBase:      "engine-base",
	SourceProjectDefault:  "default",
	SourceEnginePlatform:  "engine-platform",
	SourceProjectPlatform: "platform",
	SourceCustom:          "custom",
	SourceSaved:           "saved",
	SourceOverride:        "override",
}

// StandardLayerName returns the standard name for a source.
func StandardLayerName(source Source) string {
	if name, ok := StandardLayerNames[source]; ok {
		return name
	}
	return "unknown"
}
