package log

// Field names shared by every component.
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldDurationHuman = "duration_human"
	FieldUserAgent     = "user_agent"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldOperation     = "operation"

	FieldUserID        = "user_id"
	FieldAccountID     = "account_id"
	FieldCategoryID    = "category_id"
	FieldTransactionID = "transaction_id"
	FieldBudgetID      = "budget_id"
	FieldGoalID        = "goal_id"
	FieldRuleID        = "rule_id"
	FieldNotification  = "notification_id"
	FieldDedupKey      = "dedup_key"
	FieldMonth         = "month"
	FieldAmount        = "amount"
	FieldSpent         = "spent"
	FieldLimit         = "monthly_limit"
	FieldCount         = "count"
	FieldFormat        = "format"
)

// Component names.
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentStorage    = "storage"
	ComponentCategorize = "categorize"
	ComponentDashboard  = "dashboard"
	ComponentNotify     = "notify"
	ComponentService    = "service"
	ComponentRelay      = "relay"
	ComponentAMQP       = "amqp"
	ComponentReport     = "report"
	ComponentWorker     = "worker"
	ComponentTrace      = "trace"
)

// OpExport tags report export records.
const OpExport = "export"
