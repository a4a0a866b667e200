package model

// 所有模型的统一导入点
// 用于 AutoMigrate
var AllModels = []interface{}{
	&Instructor{},
	&Section{},
	&Student{},
	&Assignment{},
	&Submission{},
	&Grade{},
	&Feedback{},
	&PlagiarismDetection{},
	&EvaluationLog{},
}
