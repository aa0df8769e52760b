package rbac

// Default policy. Students drill and see their own official runs; teachers
// own the word lists and review every submission.
var RolePermissions = map[string][]string{
	"student": {
		"books:view",
		"quiz:take",
		"quiz:finalize-own",
		"exam:view-own",
	},
	"teacher": {
		"books:view",
		"words:upload",
		"users:bulk_upsert",
		"users:list",
		"exam:view-all",
	},
	"admin": {
		"*", // everything
	},
}
