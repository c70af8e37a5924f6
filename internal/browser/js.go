package browser

const (
	fillFunction = `function(value) {
	this.focus();
	this.value = value;
	this.dispatchEvent(new Event('input', {bubbles: true}));
	this.dispatchEvent(new Event('change', {bubbles: true}));
	return this.value;
}`

	checkFunction = `function() {
	if (!this.checked) {
		this.click();
	}
	return !!this.checked;
}`

	selectByLabelFunction = `function(label) {
	for (const option of this.options) {
		if (option.text.trim() === label) {
			this.value = option.value;
			this.dispatchEvent(new Event('input', {bubbles: true}));
			this.dispatchEvent(new Event('change', {bubbles: true}));
			return true;
		}
	}
	return false;
}`

	textFunction = `function() {
	const text = this.innerText !== undefined ? this.innerText : this.textContent;
	return (text || this.value || '').trim();
}`

	clickFunction = `function() {
	this.click();
}`
)
