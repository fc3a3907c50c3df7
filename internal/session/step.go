package session

// Step identifies the current workflow state. The set is closed: the engine
// only ever assigns one of the constants below.
type Step string

const (
	StepInitial                 Step = "initial"
	StepIdentifyProducts        Step = "identify_products"
	StepProductNotFoundFail     Step = "product_not_found_fail"
	StepConfirmProduct          Step = "confirm_product"
	StepProductNotListedFail    Step = "product_not_listed_fail"
	StepExtractSelectedProduct  Step = "extract_selected_product"
	StepQualityCheck            Step = "quality_check"
	StepQualityFail             Step = "quality_fail"
	StepOfferEnhancement        Step = "offer_enhancement"
	StepPerformEnhancement      Step = "perform_enhancement"
	StepConfirmEnhancement      Step = "confirm_enhancement"
	StepConfirmSourceImage      Step = "confirm_source_image"
	StepGetAPIKeywords          Step = "get_api_keywords"
	StepSelectBestKeyword       Step = "select_best_keyword"
	StepGetDBSpecs              Step = "get_db_specs"
	StepAskUser                 Step = "ask_user"
	StepPromptForModelNumber    Step = "prompt_for_model_number"
	StepCollectModelNumber      Step = "collect_model_number"
	StepValidateModelNumber     Step = "validate_model_number"
	StepAskBrandedSKUQuestions  Step = "ask_branded_sku_questions"
	StepCollectBrandedSKUAnswer Step = "collect_branded_sku_answers"
	StepAskCustomizationYesNo   Step = "ask_customization_yes_no"
	StepAskCustomizationDetails Step = "ask_customization_details"
	StepGenerateListing         Step = "generate_listing"
	StepConfirmSingleProduct    Step = "confirm_single_product_creation"
	StepDisplayResults          Step = "display_results"
	StepDisplayAllResults       Step = "display_all_results"
)

// All enumerates every reachable step, in rough workflow order.
var All = []Step{
	StepInitial,
	StepIdentifyProducts,
	StepProductNotFoundFail,
	StepConfirmProduct,
	StepProductNotListedFail,
	StepExtractSelectedProduct,
	StepQualityCheck,
	StepQualityFail,
	StepOfferEnhancement,
	StepPerformEnhancement,
	StepConfirmEnhancement,
	StepConfirmSourceImage,
	StepGetAPIKeywords,
	StepSelectBestKeyword,
	StepGetDBSpecs,
	StepAskUser,
	StepPromptForModelNumber,
	StepCollectModelNumber,
	StepValidateModelNumber,
	StepAskBrandedSKUQuestions,
	StepCollectBrandedSKUAnswer,
	StepAskCustomizationYesNo,
	StepAskCustomizationDetails,
	StepGenerateListing,
	StepConfirmSingleProduct,
	StepDisplayResults,
	StepDisplayAllResults,
}

// Valid reports whether s is a member of the closed step set.
func Valid(s Step) bool {
	for _, k := range All {
		if k == s {
			return true
		}
	}
	return false
}

// Terminal reports whether s is a per-session terminal display state.
func Terminal(s Step) bool {
	return s == StepDisplayResults || s == StepDisplayAllResults
}
