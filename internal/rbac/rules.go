package rbac

// Default policy. Candidates hold an admissions record; students are
// admitted candidates sitting exams; staff run admissions and grading.
var RolePermissions = map[string][]string{
	"candidate": {
		"enrollment:create",
		"enrollment:view-own",
		"document:upload",
	},
	"student": {
		"exam:view",
		"session:open",
		"session:answer",
		"session:close",
		"result:view-own",
	},
	"staff": {
		"enrollment:create",
		"enrollment:transition",
		"enrollment:list",
		"enrollment:view",
		"document:upload",
		"document:validate",
		"exam:create",
		"exam:reschedule",
		"exam:view",
		"result:view-all",
		"grading:run",
		"audit:view",
	},
	"admin": {
		"*", // everything
	},
}
