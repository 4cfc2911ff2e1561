package validate

// Issue codes.
const (
	CodeUnclosedCodeBlock     = "UNCLOSED_CODE_BLOCK"
	CodeTabIndentation        = "TAB_INDENTATION"
	CodeOddIndentation        = "ODD_INDENTATION"
	CodeIndentJump            = "INDENT_JUMP_TOO_LARGE"
	CodeMultipleSeparators    = "MULTIPLE_SEPARATORS"
	CodeInvalidJSON           = "INVALID_JSON"
	CodeInvalidRegistryEntry  = "INVALID_REGISTRY_ENTRY"
	CodeMissingTagStore       = "MISSING_TAG_STORE"
	CodeUnknownTagID          = "UNKNOWN_TAG_ID"
	CodeActorPrefixInTitle    = "ACTOR_PREFIX_IN_TITLE"
	CodeMissingTagGroup       = "MISSING_REQUIRED_TAG_GROUP"
	CodeMissingActorTag       = "MISSING_ACTOR_TAG"
	CodeMultipleActorTags     = "MULTIPLE_ACTOR_TAGS"
	CodeDoAttrsWithoutDo      = "DOATTRS_WITHOUT_DO"
	CodeUnknownDataObject     = "UNKNOWN_DATA_OBJECT"
	CodeUnknownAttributeID    = "UNKNOWN_DATA_OBJECT_ATTRIBUTE_ID"
	CodeMissingUISurfaceTag   = "MISSING_UI_SURFACE_TAG"
	CodeCrossTimeframe        = "CROSS_TIMEFRAME_SIGNAL"
	CodeSwimlaneMissingActor  = "SWIMLANE_NODE_MISSING_ACTOR_TAG"
	CodeSwimlaneActorMismatch = "SWIMLANE_ACTOR_MISMATCH"
	CodeSwimlaneConnectors    = "SWIMLANE_CONNECTORS_FIELD"
	CodeDanglingReference     = "DANGLING_REFERENCE"
	CodeDuplicateNumber       = "DUPLICATE_RUNNING_NUMBER"
	CodeConnectorNotEdge      = "CONNECTOR_NOT_DIRECT_EDGE"
	CodeUntypedFlowNode       = "UNTYPED_FLOW_NODE"
)
